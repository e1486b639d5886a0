// Package memory is an in-process implementation of store.Store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"freelance/internal/core"
)

type Store struct {
	mu       sync.Mutex
	clients  map[string]core.Client
	workDays map[string]core.WorkDay
	accounts map[string]core.Account
	now      func() time.Time
}

func New() *Store {
	return &Store{
		clients:  make(map[string]core.Client),
		workDays: make(map[string]core.WorkDay),
		accounts: make(map[string]core.Account),
		now:      time.Now,
	}
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) CreateClient(_ context.Context, c core.Client) (core.Client, error) {
	if c.AccountID == "" {
		return core.Client{}, core.ErrMissingAccount
	}
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	c.Name = strings.TrimSpace(c.Name)
	c.CreatedAt = s.now()
	s.clients[c.ID] = c
	return c, nil
}

func (s *Store) UpdateClient(_ context.Context, c core.Client) (core.Client, error) {
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.clients[c.ID]
	if !ok || cur.AccountID != c.AccountID {
		return core.Client{}, core.ErrClientNotFound
	}
	cur.Name = strings.TrimSpace(c.Name)
	cur.GrossDailyRate = c.GrossDailyRate
	s.clients[c.ID] = cur
	return cur, nil
}

func (s *Store) DeleteClient(_ context.Context, accountID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.clients[id]
	if !ok || cur.AccountID != accountID {
		return core.ErrClientNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *Store) GetClient(_ context.Context, accountID, id string) (core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok || c.AccountID != accountID {
		return core.Client{}, core.ErrClientNotFound
	}
	return c, nil
}

func (s *Store) ListClients(_ context.Context, accountID string) ([]core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Client, 0)
	for _, c := range s.clients {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetWorkDay(_ context.Context, accountID string, date core.Date) (core.WorkDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, wd := range s.workDays {
		if wd.AccountID == accountID && wd.Date.SameDay(date) {
			return s.resolve(wd), nil
		}
	}
	return core.WorkDay{}, core.ErrWorkDayNotFound
}

func (s *Store) CreateWorkDay(_ context.Context, wd core.WorkDay) (core.WorkDay, error) {
	if wd.AccountID == "" {
		return core.WorkDay{}, core.ErrMissingAccount
	}
	if err := wd.Validate(); err != nil {
		return core.WorkDay{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.workDays {
		if cur.AccountID == wd.AccountID && cur.Date.SameDay(wd.Date) {
			return core.WorkDay{}, core.ErrWorkDayExists
		}
	}
	wd.ID = uuid.NewString()
	wd.Date = core.DateOf(wd.Date.Time)
	wd.Client = nil
	wd.CreatedAt = s.now()
	s.workDays[wd.ID] = wd
	return s.resolve(wd), nil
}

func (s *Store) UpdateWorkDayClient(_ context.Context, accountID, id, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wd, ok := s.workDays[id]
	if !ok || wd.AccountID != accountID {
		return core.ErrWorkDayNotFound
	}
	wd.ClientID = clientID
	s.workDays[id] = wd
	return nil
}

func (s *Store) DeleteWorkDay(_ context.Context, accountID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wd, ok := s.workDays[id]
	if !ok || wd.AccountID != accountID {
		return core.ErrWorkDayNotFound
	}
	delete(s.workDays, id)
	return nil
}

func (s *Store) ListWorkDays(_ context.Context, accountID string, from, to core.Date) ([]core.WorkDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.WorkDay, 0)
	for _, wd := range s.workDays {
		if wd.AccountID == accountID && wd.Date.InRange(from, to) {
			out = append(out, s.resolve(wd))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

// resolve joins the client record; callers hold s.mu.
func (s *Store) resolve(wd core.WorkDay) core.WorkDay {
	wd.Client = nil
	if c, ok := s.clients[wd.ClientID]; ok && c.AccountID == wd.AccountID {
		cc := c
		wd.Client = &cc
	}
	return wd
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	email := normalizeEmail(a.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.accounts {
		if cur.Email == email {
			return core.Account{}, core.ErrEmailTaken
		}
	}
	a.ID = uuid.NewString()
	a.Email = email
	a.CreatedAt = s.now()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.ErrAccountNotFound
	}
	return a, nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (core.Account, error) {
	email = normalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return core.Account{}, core.ErrAccountNotFound
}

func (s *Store) ConfirmAccount(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	if a.ConfirmedAt.IsZero() {
		a.ConfirmedAt = at
		s.accounts[id] = a
	}
	return nil
}

func (s *Store) UpdatePassword(_ context.Context, id, passwordHash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	a.PasswordHash = passwordHash
	a.PasswordChangedAt = changedAt
	s.accounts[id] = a
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
