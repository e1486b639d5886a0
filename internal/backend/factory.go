package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"freelance/internal/amqp"
	"freelance/internal/services"
	"freelance/internal/storage"
	"freelance/internal/store/memory"
)

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger

	// dial is swapped in tests.
	dial func(url, exchange, queue string) (*amqp.Publisher, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial:   amqp.NewPublisher,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		res = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachBroker(ctx, res, config)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend() *Result {
	f.logger.Warn("Initialized memory backend, data is lost on restart")
	return &Result{Store: memory.New()}
}

// attachBroker wires the AMQP publisher as event sink and mailer. Without a
// broker, emails go to config.Mailer and work day events are dropped.
func (f *DefaultFactory) attachBroker(ctx context.Context, res *Result, config Config) {
	res.Mailer = config.Mailer
	if res.Mailer == nil {
		res.Mailer = services.LogMailer{Logger: f.logger}
	}
	if config.AMQPURL == "" {
		return
	}

	pub, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP publisher, continuing without events", "error", err)
		return
	}
	f.logger.InfoContext(ctx, "Initialized AMQP publisher",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	res.Events = pub
	res.Mailer = pub

	storeCleanup := res.Cleanup
	res.Cleanup = func() error {
		var errs []error
		if err := pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close AMQP publisher: %w", err))
		}
		if storeCleanup != nil {
			if err := storeCleanup(); err != nil {
				errs = append(errs, fmt.Errorf("close store: %w", err))
			}
		}
		return errors.Join(errs...)
	}
}
