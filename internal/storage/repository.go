package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"freelance/internal/core"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements store.Store
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateClient implements store.ClientStore
func (r *SQLiteRepository) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	if c.AccountID == "" {
		return core.Client{}, core.ErrMissingAccount
	}
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	c.ID = uuid.NewString()
	c.Name = strings.TrimSpace(c.Name)
	c.CreatedAt = r.now().UTC()

	err := r.queries.CreateClient(ctx, ClientRow{
		ID:             c.ID,
		AccountID:      c.AccountID,
		Name:           c.Name,
		GrossDailyRate: c.GrossDailyRate,
		CreatedAt:      c.CreatedAt.Format(timeLayout),
	})
	if err != nil {
		return core.Client{}, fmt.Errorf("create client: %w", err)
	}

	slog.InfoContext(ctx, "Client saved to SQLite", "id", c.ID, "name", c.Name, "gross_daily_rate", c.GrossDailyRate)
	return c, nil
}

// UpdateClient implements store.ClientStore
func (r *SQLiteRepository) UpdateClient(ctx context.Context, c core.Client) (core.Client, error) {
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	n, err := r.queries.UpdateClient(ctx, strings.TrimSpace(c.Name), c.GrossDailyRate, c.ID, c.AccountID)
	if err != nil {
		return core.Client{}, fmt.Errorf("update client %s: %w", c.ID, err)
	}
	if n == 0 {
		return core.Client{}, core.ErrClientNotFound
	}
	return r.GetClient(ctx, c.AccountID, c.ID)
}

// DeleteClient implements store.ClientStore. Work days are left untouched.
func (r *SQLiteRepository) DeleteClient(ctx context.Context, accountID, id string) error {
	n, err := r.queries.DeleteClient(ctx, id, accountID)
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	if n == 0 {
		return core.ErrClientNotFound
	}
	slog.InfoContext(ctx, "Client deleted from SQLite", "id", id)
	return nil
}

// GetClient implements store.ClientStore
func (r *SQLiteRepository) GetClient(ctx context.Context, accountID, id string) (core.Client, error) {
	row, err := r.queries.GetClient(ctx, id, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Client{}, core.ErrClientNotFound
	}
	if err != nil {
		return core.Client{}, fmt.Errorf("get client %s: %w", id, err)
	}
	return clientFromRow(row), nil
}

// ListClients implements store.ClientStore
func (r *SQLiteRepository) ListClients(ctx context.Context, accountID string) ([]core.Client, error) {
	rows, err := r.queries.ListClients(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]core.Client, len(rows))
	for i, row := range rows {
		out[i] = clientFromRow(row)
	}
	return out, nil
}

// GetWorkDay implements store.WorkDayStore
func (r *SQLiteRepository) GetWorkDay(ctx context.Context, accountID string, date core.Date) (core.WorkDay, error) {
	row, err := r.queries.GetWorkDayByDate(ctx, accountID, date.String())
	if errors.Is(err, sql.ErrNoRows) {
		return core.WorkDay{}, core.ErrWorkDayNotFound
	}
	if err != nil {
		return core.WorkDay{}, fmt.Errorf("get work day %s: %w", date, err)
	}
	return workDayFromRow(row)
}

// CreateWorkDay implements store.WorkDayStore
func (r *SQLiteRepository) CreateWorkDay(ctx context.Context, wd core.WorkDay) (core.WorkDay, error) {
	if wd.AccountID == "" {
		return core.WorkDay{}, core.ErrMissingAccount
	}
	if err := wd.Validate(); err != nil {
		return core.WorkDay{}, err
	}
	id := uuid.NewString()
	err := r.queries.CreateWorkDay(ctx, id, wd.AccountID, wd.Date.String(), wd.ClientID, r.now().UTC().Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return core.WorkDay{}, core.ErrWorkDayExists
		}
		return core.WorkDay{}, fmt.Errorf("create work day %s: %w", wd.Date, err)
	}

	slog.InfoContext(ctx, "Work day saved to SQLite", "id", id, "date", wd.Date.String(), "client_id", wd.ClientID)
	return r.GetWorkDay(ctx, wd.AccountID, wd.Date)
}

// UpdateWorkDayClient implements store.WorkDayStore
func (r *SQLiteRepository) UpdateWorkDayClient(ctx context.Context, accountID, id, clientID string) error {
	n, err := r.queries.UpdateWorkDayClient(ctx, clientID, id, accountID)
	if err != nil {
		return fmt.Errorf("update work day %s: %w", id, err)
	}
	if n == 0 {
		return core.ErrWorkDayNotFound
	}
	return nil
}

// DeleteWorkDay implements store.WorkDayStore
func (r *SQLiteRepository) DeleteWorkDay(ctx context.Context, accountID, id string) error {
	n, err := r.queries.DeleteWorkDay(ctx, id, accountID)
	if err != nil {
		return fmt.Errorf("delete work day %s: %w", id, err)
	}
	if n == 0 {
		return core.ErrWorkDayNotFound
	}
	return nil
}

// ListWorkDays implements store.WorkDayStore
func (r *SQLiteRepository) ListWorkDays(ctx context.Context, accountID string, from, to core.Date) ([]core.WorkDay, error) {
	rows, err := r.queries.ListWorkDays(ctx, accountID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list work days %s..%s: %w", from, to, err)
	}
	out := make([]core.WorkDay, 0, len(rows))
	for _, row := range rows {
		wd, err := workDayFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, wd)
	}
	return out, nil
}

// CreateAccount implements store.AccountStore
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ID = uuid.NewString()
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.CreatedAt = r.now().UTC()
	row := AccountRow{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt.Format(timeLayout),
	}
	if !a.ConfirmedAt.IsZero() {
		row.ConfirmedAt = sql.NullString{String: a.ConfirmedAt.UTC().Format(timeLayout), Valid: true}
	}
	if err := r.queries.CreateAccount(ctx, row); err != nil {
		if isUniqueViolation(err) {
			return core.Account{}, core.ErrEmailTaken
		}
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// GetAccount implements store.AccountStore
func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return accountFromRow(row)
}

// GetAccountByEmail implements store.AccountStore
func (r *SQLiteRepository) GetAccountByEmail(ctx context.Context, email string) (core.Account, error) {
	row, err := r.queries.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account by email: %w", err)
	}
	return accountFromRow(row)
}

// ConfirmAccount implements store.AccountStore
func (r *SQLiteRepository) ConfirmAccount(ctx context.Context, id string, at time.Time) error {
	n, err := r.queries.ConfirmAccount(ctx, at.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("confirm account: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// UpdatePassword implements store.AccountStore
func (r *SQLiteRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	n, err := r.queries.UpdatePassword(ctx, passwordHash, changedAt.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

func clientFromRow(row ClientRow) core.Client {
	created, _ := time.Parse(timeLayout, row.CreatedAt)
	return core.Client{
		ID:             row.ID,
		AccountID:      row.AccountID,
		Name:           row.Name,
		GrossDailyRate: row.GrossDailyRate,
		CreatedAt:      created,
	}
}

func workDayFromRow(row WorkDayRow) (core.WorkDay, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.WorkDay{}, fmt.Errorf("parse work day date %q: %w", row.Date, err)
	}
	created, _ := time.Parse(timeLayout, row.CreatedAt)
	wd := core.WorkDay{
		ID:        row.ID,
		AccountID: row.AccountID,
		Date:      date,
		ClientID:  row.ClientID,
		CreatedAt: created,
	}
	if row.ClientName.Valid {
		c := clientFromRow(ClientRow{
			ID:             row.ClientID,
			AccountID:      row.AccountID,
			Name:           row.ClientName.String,
			GrossDailyRate: row.GrossDailyRate.Float64,
			CreatedAt:      row.ClientCreated.String,
		})
		wd.Client = &c
	}
	return wd, nil
}

func accountFromRow(row AccountRow) (core.Account, error) {
	created, _ := time.Parse(timeLayout, row.CreatedAt)
	a := core.Account{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    created,
	}
	if row.ConfirmedAt.Valid {
		at, err := time.Parse(timeLayout, row.ConfirmedAt.String)
		if err != nil {
			return core.Account{}, fmt.Errorf("parse confirmed_at: %w", err)
		}
		a.ConfirmedAt = at
	}
	if row.PasswordChangedAt.Valid {
		at, err := time.Parse(timeLayout, row.PasswordChangedAt.String)
		if err != nil {
			return core.Account{}, fmt.Errorf("parse password_changed_at: %w", err)
		}
		a.PasswordChangedAt = at
	}
	return a, nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
