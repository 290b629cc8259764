package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/reputrack/reputrack/internal/config"
	"github.com/reputrack/reputrack/internal/models"
)

// Service delivers reputation reports via the configured channels.
type Service struct {
	config *config.Config
	client *resty.Client
}

var _ Notifier = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends the report through every configured channel and
// accumulates per-channel failures.
func (s *Service) SendReport(report *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(report); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(report *models.Report) error {
	message := s.buildTeamsMessage(report)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Reputation alert - %s", report.Target),
		Text: fmt.Sprintf("Reputation index for %s (%s) dropped to %d over %d mentions",
			report.Target, report.Source, report.ReputationIndex, report.TotalMentions),
	}

	facts := []TeamsFact{
		{Name: "Reputation Index", Value: fmt.Sprintf("%d", report.ReputationIndex)},
		{Name: "Total Mentions", Value: fmt.Sprintf("%d", report.TotalMentions)},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}

	for _, key := range []string{"pos", "neu", "neg"} {
		if count, ok := report.Summary[key].(int); ok {
			facts = append(facts, TeamsFact{
				Name:  fmt.Sprintf("%s mentions", strings.ToUpper(key)),
				Value: fmt.Sprintf("%d", count),
			})
		}
	}

	if topic, ok := report.Summary["top_negative_topic"].(string); ok && topic != "" {
		facts = append(facts, TeamsFact{Name: "Top negative topic", Value: topic})
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	return message
}

func (s *Service) sendEmail(report *models.Report) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", fmt.Sprintf("Reputation alert: %s at %d", report.Target, report.ReputationIndex))
	m.SetBody("text/html", s.buildEmailBody(report))

	dialer := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailBody(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h2>Reputation alert for %s</h2>", report.Target)
	fmt.Fprintf(&b, "<p>Index <strong>%d</strong> over %d mentions (source: %s).</p>",
		report.ReputationIndex, report.TotalMentions, report.Source)

	if len(report.Buckets) > 0 {
		b.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>Hour</th><th>Mentions</th><th>Pos</th><th>Neu</th><th>Neg</th><th>Index</th></tr>")
		for _, bucket := range report.Buckets {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr>",
				bucket.BucketStart.Format("2006-01-02 15:00"),
				bucket.MentionsCount, bucket.PosCount, bucket.NeuCount, bucket.NegCount,
				bucket.ReputationIndex)
		}
		b.WriteString("</table>")
	}

	fmt.Fprintf(&b, "<p><em>Generated %s</em></p>", report.GeneratedAt.UTC().Format(time.RFC3339))
	return b.String()
}
