package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelance/internal/amqp"
	"freelance/internal/config"
	"freelance/internal/core"
	"freelance/internal/services"
)

func quietFactory() *DefaultFactory {
	return NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "data/x.db",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "ex",
		AMQPQueue:    "q",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "data/x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "q", cfg.AMQPQueue)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := quietFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)

	require.NotNil(t, res.Store)
	assert.Nil(t, res.Events)
	assert.IsType(t, services.LogMailer{}, res.Mailer)
	assert.NoError(t, res.Store.Ping(context.Background()))
	assert.NoError(t, res.Close())
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "freelance.db")

	res, err := quietFactory().CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	require.NoError(t, res.Store.Ping(ctx))
	_, err = res.Store.GetAccountByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
}

func TestBrokerFailureFallsBackToLogging(t *testing.T) {
	f := quietFactory()
	dialed := false
	f.dial = func(url, exchange, queue string) (*amqp.Publisher, error) {
		dialed = true
		assert.Equal(t, "amqp://broker", url)
		assert.Equal(t, "ex", exchange)
		return nil, errors.New("connection refused")
	}

	res, err := f.CreateBackend(context.Background(), Config{
		Type:         MemoryBackend,
		AMQPURL:      "amqp://broker",
		AMQPExchange: "ex",
		AMQPQueue:    "q",
	})
	require.NoError(t, err)
	assert.True(t, dialed)
	assert.Nil(t, res.Events)
	assert.IsType(t, services.LogMailer{}, res.Mailer)
}

func TestConfiguredMailerUsedWithoutBroker(t *testing.T) {
	direct := services.LogMailer{ShowLinks: true}
	res, err := quietFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend, Mailer: direct})
	require.NoError(t, err)
	assert.Equal(t, direct, res.Mailer)
}

func TestResultCloseNil(t *testing.T) {
	var res *Result
	assert.NoError(t, res.Close())
}
