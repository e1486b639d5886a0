// Package store declares the record collections the application reads and writes.
//
// Every method is scoped to an account: a record belonging to another account is
// reported as not found.
package store

import (
	"context"
	"time"

	"freelance/internal/core"
)

// Ports for outbound adapters.
type (
	ClientStore interface {
		CreateClient(ctx context.Context, c core.Client) (core.Client, error)
		UpdateClient(ctx context.Context, c core.Client) (core.Client, error)
		// DeleteClient removes the client only; work days referencing it are kept.
		DeleteClient(ctx context.Context, accountID, id string) error
		GetClient(ctx context.Context, accountID, id string) (core.Client, error)
		// ListClients returns the account's clients sorted by name, ascending.
		ListClients(ctx context.Context, accountID string) ([]core.Client, error)
	}

	WorkDayStore interface {
		// GetWorkDay returns core.ErrWorkDayNotFound when the date has no assignment.
		GetWorkDay(ctx context.Context, accountID string, date core.Date) (core.WorkDay, error)
		CreateWorkDay(ctx context.Context, wd core.WorkDay) (core.WorkDay, error)
		UpdateWorkDayClient(ctx context.Context, accountID, id, clientID string) error
		DeleteWorkDay(ctx context.Context, accountID, id string) error
		// ListWorkDays returns the work days in the inclusive date range with their
		// client joined inline; Client is nil for orphaned rows.
		ListWorkDays(ctx context.Context, accountID string, from, to core.Date) ([]core.WorkDay, error)
	}

	AccountStore interface {
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		GetAccount(ctx context.Context, id string) (core.Account, error)
		GetAccountByEmail(ctx context.Context, email string) (core.Account, error)
		ConfirmAccount(ctx context.Context, id string, at time.Time) error
		UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
	}

	// Store is the full persistence contract.
	Store interface {
		ClientStore
		WorkDayStore
		AccountStore
		Ping(ctx context.Context) error
	}
)
