package archive

import "context"

// NoopArchive discards snapshots. Used when no storage account is
// configured so the pipeline does not need to special-case archival.
type NoopArchive struct{}

var _ Archiver = (*NoopArchive)(nil)

func (NoopArchive) Store(context.Context, string, []byte) error { return nil }

func (NoopArchive) Retrieve(context.Context, string) ([]byte, error) { return nil, nil }

func (NoopArchive) List(context.Context, string) ([]string, error) { return nil, nil }

func (NoopArchive) Delete(context.Context, string) error { return nil }
