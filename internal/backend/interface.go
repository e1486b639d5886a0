package backend

import (
	"context"

	"freelance/internal/services"
	"freelance/internal/store"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Result bundles the store with the outbound adapters that share its lifecycle.
type Result struct {
	Store store.Store

	// Events is nil when no broker is configured.
	Events services.EventPublisher
	Mailer services.Mailer

	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP (optional for both backends)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Mailer delivers emails when no broker is configured; nil logs them with links redacted.
	Mailer services.Mailer
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
