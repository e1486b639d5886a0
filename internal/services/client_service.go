package services

import (
	"context"
	"fmt"
	"strings"

	"freelance/internal/core"
	"freelance/internal/store"
)

// ClientInput is the raw client form.
type ClientInput struct {
	Name           string
	GrossDailyRate string
}

// parse validates the form before anything reaches storage.
func (in ClientInput) parse() (core.Client, error) {
	c := core.Client{Name: strings.TrimSpace(in.Name)}
	rate, err := core.ParseRate(in.GrossDailyRate)
	if err != nil {
		return core.Client{}, err
	}
	c.GrossDailyRate = rate
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	return c, nil
}

// ClientService manages the account's clients.
type ClientService struct {
	clients store.ClientStore
	months  MonthCache
	metrics Recorder
	guard   *inflight
}

func NewClientService(clients store.ClientStore, months MonthCache, metrics Recorder) *ClientService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &ClientService{clients: clients, months: months, metrics: metrics, guard: newInflight()}
}

func (s *ClientService) List(ctx context.Context, accountID string) ([]core.Client, error) {
	if accountID == "" {
		return nil, core.ErrMissingAccount
	}
	clients, err := s.clients.ListClients(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (s *ClientService) Get(ctx context.Context, accountID, id string) (core.Client, error) {
	return s.clients.GetClient(ctx, accountID, id)
}

func (s *ClientService) Create(ctx context.Context, accountID string, in ClientInput) (core.Client, error) {
	c, err := in.parse()
	if err != nil {
		return core.Client{}, err
	}
	c.AccountID = accountID

	// Keyed by name: a double submit of the same form is rejected while the first runs.
	release, err := s.guard.acquire(accountID + "/new/" + strings.ToLower(c.Name))
	if err != nil {
		return core.Client{}, err
	}
	defer release()

	created, err := s.clients.CreateClient(ctx, c)
	s.metrics.Mutation("client", "create", err)
	if err != nil {
		return core.Client{}, fmt.Errorf("create client: %w", err)
	}
	return created, nil
}

// Update replaces name and rate. Cached months are dropped since they embed the client.
func (s *ClientService) Update(ctx context.Context, accountID, id string, in ClientInput) (core.Client, error) {
	c, err := in.parse()
	if err != nil {
		return core.Client{}, err
	}
	c.ID = id
	c.AccountID = accountID

	release, err := s.guard.acquire(accountID + "/" + id)
	if err != nil {
		return core.Client{}, err
	}
	defer release()

	updated, err := s.clients.UpdateClient(ctx, c)
	s.metrics.Mutation("client", "update", err)
	if err != nil {
		return core.Client{}, fmt.Errorf("update client: %w", err)
	}
	s.invalidate(accountID)
	return updated, nil
}

// Delete removes a client once the user has confirmed. Work days pointing at it
// stay in place and show up as orphans.
func (s *ClientService) Delete(ctx context.Context, accountID, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	release, err := s.guard.acquire(accountID + "/" + id)
	if err != nil {
		return err
	}
	defer release()

	err = s.clients.DeleteClient(ctx, accountID, id)
	s.metrics.Mutation("client", "delete", err)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	s.invalidate(accountID)
	return nil
}

func (s *ClientService) invalidate(accountID string) {
	if s.months != nil {
		s.months.DeletePrefix(AccountPrefix(accountID))
	}
}
