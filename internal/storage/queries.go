package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type ClientRow struct {
	ID             string
	AccountID      string
	Name           string
	GrossDailyRate float64
	CreatedAt      string
}

type WorkDayRow struct {
	ID             string
	AccountID      string
	Date           string
	ClientID       string
	CreatedAt      string
	ClientName     sql.NullString
	GrossDailyRate sql.NullFloat64
	ClientCreated  sql.NullString
}

type AccountRow struct {
	ID           string
	Email        string
	PasswordHash string
	ConfirmedAt  sql.NullString
	CreatedAt    string

	PasswordChangedAt sql.NullString
}

const createClient = `-- name: CreateClient :exec
INSERT INTO clients (id, account_id, name, gross_daily_rate, created_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateClient(ctx context.Context, arg ClientRow) error {
	_, err := q.db.ExecContext(ctx, createClient, arg.ID, arg.AccountID, arg.Name, arg.GrossDailyRate, arg.CreatedAt)
	return err
}

const updateClient = `-- name: UpdateClient :execrows
UPDATE clients SET name = ?, gross_daily_rate = ? WHERE id = ? AND account_id = ?`

func (q *Queries) UpdateClient(ctx context.Context, name string, rate float64, id, accountID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateClient, name, rate, id, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteClient = `-- name: DeleteClient :execrows
DELETE FROM clients WHERE id = ? AND account_id = ?`

func (q *Queries) DeleteClient(ctx context.Context, id, accountID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteClient, id, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getClient = `-- name: GetClient :one
SELECT id, account_id, name, gross_daily_rate, created_at FROM clients WHERE id = ? AND account_id = ?`

func (q *Queries) GetClient(ctx context.Context, id, accountID string) (ClientRow, error) {
	var c ClientRow
	err := q.db.QueryRowContext(ctx, getClient, id, accountID).Scan(&c.ID, &c.AccountID, &c.Name, &c.GrossDailyRate, &c.CreatedAt)
	return c, err
}

const listClients = `-- name: ListClients :many
SELECT id, account_id, name, gross_daily_rate, created_at FROM clients WHERE account_id = ? ORDER BY name ASC, id ASC`

func (q *Queries) ListClients(ctx context.Context, accountID string) ([]ClientRow, error) {
	rows, err := q.db.QueryContext(ctx, listClients, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ClientRow
	for rows.Next() {
		var c ClientRow
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.GrossDailyRate, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const workDaySelect = `SELECT w.id, w.account_id, w.date, w.client_id, w.created_at, c.name, c.gross_daily_rate, c.created_at
FROM work_days w LEFT JOIN clients c ON c.id = w.client_id AND c.account_id = w.account_id`

const getWorkDayByDate = `-- name: GetWorkDayByDate :one
` + workDaySelect + ` WHERE w.account_id = ? AND w.date = ?`

func (q *Queries) GetWorkDayByDate(ctx context.Context, accountID, date string) (WorkDayRow, error) {
	return scanWorkDay(q.db.QueryRowContext(ctx, getWorkDayByDate, accountID, date))
}

const listWorkDays = `-- name: ListWorkDays :many
` + workDaySelect + ` WHERE w.account_id = ? AND w.date >= ? AND w.date <= ? ORDER BY w.date ASC`

func (q *Queries) ListWorkDays(ctx context.Context, accountID, from, to string) ([]WorkDayRow, error) {
	rows, err := q.db.QueryContext(ctx, listWorkDays, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WorkDayRow
	for rows.Next() {
		w, err := scanWorkDay(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkDay(s scanner) (WorkDayRow, error) {
	var w WorkDayRow
	err := s.Scan(&w.ID, &w.AccountID, &w.Date, &w.ClientID, &w.CreatedAt, &w.ClientName, &w.GrossDailyRate, &w.ClientCreated)
	return w, err
}

const createWorkDay = `-- name: CreateWorkDay :exec
INSERT INTO work_days (id, account_id, date, client_id, created_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateWorkDay(ctx context.Context, id, accountID, date, clientID, createdAt string) error {
	_, err := q.db.ExecContext(ctx, createWorkDay, id, accountID, date, clientID, createdAt)
	return err
}

const updateWorkDayClient = `-- name: UpdateWorkDayClient :execrows
UPDATE work_days SET client_id = ? WHERE id = ? AND account_id = ?`

func (q *Queries) UpdateWorkDayClient(ctx context.Context, clientID, id, accountID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateWorkDayClient, clientID, id, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteWorkDay = `-- name: DeleteWorkDay :execrows
DELETE FROM work_days WHERE id = ? AND account_id = ?`

func (q *Queries) DeleteWorkDay(ctx context.Context, id, accountID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteWorkDay, id, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (id, email, password_hash, confirmed_at, created_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateAccount(ctx context.Context, arg AccountRow) error {
	_, err := q.db.ExecContext(ctx, createAccount, arg.ID, arg.Email, arg.PasswordHash, arg.ConfirmedAt, arg.CreatedAt)
	return err
}

const accountSelect = `SELECT id, email, password_hash, confirmed_at, created_at, password_changed_at FROM accounts`

func (q *Queries) GetAccount(ctx context.Context, id string) (AccountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx, accountSelect+` WHERE id = ?`, id))
}

func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (AccountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx, accountSelect+` WHERE email = ?`, email))
}

func scanAccount(row *sql.Row) (AccountRow, error) {
	var a AccountRow
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.ConfirmedAt, &a.CreatedAt, &a.PasswordChangedAt)
	return a, err
}

const confirmAccount = `-- name: ConfirmAccount :execrows
UPDATE accounts SET confirmed_at = COALESCE(confirmed_at, ?) WHERE id = ?`

func (q *Queries) ConfirmAccount(ctx context.Context, at, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, confirmAccount, at, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updatePassword = `-- name: UpdatePassword :execrows
UPDATE accounts SET password_hash = ?, password_changed_at = ? WHERE id = ?`

func (q *Queries) UpdatePassword(ctx context.Context, hash, changedAt, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updatePassword, hash, changedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
