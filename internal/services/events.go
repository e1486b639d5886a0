package services

import (
	"context"
	"log/slog"
	"net/url"
)

// EventPublisher announces work day changes; amqp.Publisher implements it.
type EventPublisher interface {
	PublishWorkDay(ctx context.Context, accountID, date, clientID string) error
}

// Mailer delivers account emails carrying a confirmation or recovery link.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body, link string) error
}

// Recorder receives operational counters; metrics.Metrics implements it.
type Recorder interface {
	Mutation(entity, op string, err error)
	CacheHit()
	CacheMiss()
}

// LogMailer writes emails to the log instead of sending them. The access token
// is stripped from the link unless ShowLinks is set, which only development does.
type LogMailer struct {
	Logger    *slog.Logger
	ShowLinks bool
}

func (m LogMailer) SendEmail(ctx context.Context, to, subject, body, link string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if m.ShowLinks {
		logger.InfoContext(ctx, "Email not sent, logging instead",
			"to", to,
			"subject", subject,
			"link", link)
		return nil
	}
	target, kind := redactLink(link)
	logger.InfoContext(ctx, "Email not sent, logging instead",
		"to", to,
		"subject", subject,
		"link", target,
		"type", kind)
	return nil
}

// redactLink drops the fragment, which carries the access token, and keeps its type.
func redactLink(link string) (target, kind string) {
	u, err := url.Parse(link)
	if err != nil {
		return "[redacted]", ""
	}
	if frag, err := url.ParseQuery(u.Fragment); err == nil {
		kind = frag.Get("type")
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = ""
	return u.String(), kind
}

type nopRecorder struct{}

func (nopRecorder) Mutation(string, string, error) {}
func (nopRecorder) CacheHit()                      {}
func (nopRecorder) CacheMiss()                     {}
