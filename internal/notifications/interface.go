package notifications

import "github.com/reputrack/reputrack/internal/models"

// Notifier defines the contract for alert delivery channels
type Notifier interface {
	SendReport(report *models.Report) error
}
