package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/stress-service/internal/config"
	"github.com/Dan9191/stress-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender. It returns nil when SMTP or the
// alert recipients are not configured.
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	if cfg.SMTPHost == "" || len(cfg.AlertRecipients) == 0 {
		return nil
	}
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendFragilityAlert notifies the alert recipients about a fragile stress result
func (s *Sender) SendFragilityAlert(ctx context.Context, alert models.FragilityAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = s.cfg.AlertRecipients
	e.Subject = alertSubject(alert)
	e.Text = []byte(alertBody(alert))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send fragility alert for run %s: %v", alert.RunID, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", strings.Join(e.To, ", "), e.Subject)
	return nil
}

func alertSubject(a models.FragilityAlert) string {
	return fmt.Sprintf("Fragility alert: %s scored %d/100 under %q", a.CompanyName, a.FragilityScore, a.ScenarioName)
}

func alertBody(a models.FragilityAlert) string {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	fmt.Fprintf(&b, "The stress scenario %q applied to %s produced a fragility score of %d/100, "+
		"at or above the alert threshold of %d.\n\n", a.ScenarioName, a.CompanyName, a.FragilityScore, a.Threshold)
	fmt.Fprintf(&b, "Stressed DSCR: %s\n", formatOptional(a.StressedDSCR, "%.2fx"))
	fmt.Fprintf(&b, "Stressed liquidity runway: %s\n", formatOptional(a.StressedRunway, "%.1f months"))
	fmt.Fprintf(&b, "Run: %s\n", a.RunID)
	if !a.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Time: %s\n", a.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	b.WriteString("\nBest regards,\nStress Service")
	return b.String()
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
