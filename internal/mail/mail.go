package mail

import (
	"log/slog"

	"freelance/internal/config"
	"freelance/internal/services"
)

// FromConfig returns the SMTP mailer when a relay is configured and a
// LogMailer otherwise. Only development logs links with their token.
func FromConfig(cfg *config.Config, logger *slog.Logger) (services.Mailer, error) {
	if cfg.SMTPHost == "" {
		return services.LogMailer{Logger: logger, ShowLinks: cfg.IsDevelopment()}, nil
	}
	m, err := NewSMTPMailer(SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
