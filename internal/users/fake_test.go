package users

import (
	"context"
	"sync"
	"time"

	"github.com/odyssey-erp/accounts/internal/auth"
	"github.com/odyssey-erp/accounts/internal/shared"
)

// memStore is an in-memory RepositoryPort with the same uniqueness rules as
// the accounts table.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID int64
	rows   map[int64]User

	createErr    error
	createReturn bool
	findErr      error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]User)}
}

func (m *memStore) InTx(ctx context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memStore) FindByID(ctx context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	row, ok := m.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &row, nil
}

func (m *memStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	return m.findBy(func(u User) bool { return u.Username == username })
}

func (m *memStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return m.findBy(func(u User) bool { return u.Email == email })
}

func (m *memStore) findBy(match func(User) bool) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, row := range m.rows {
		if match(row) {
			found := row
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStore) Create(ctx context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createReturn {
		return nil, nil
	}
	if err := m.conflict(0, user); err != nil {
		return nil, err
	}
	m.nextID++
	row := *user
	row.ID = m.nextID
	row.CreatedAt = time.Now().UTC()
	row.UpdatedAt = row.CreatedAt
	m.rows[row.ID] = row
	return &row, nil
}

func (m *memStore) Update(ctx context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[user.ID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if err := m.conflict(user.ID, user); err != nil {
		return nil, err
	}
	row.Username = user.Username
	row.Email = user.Email
	row.UpdatedAt = time.Now().UTC()
	m.rows[row.ID] = row
	return &row, nil
}

func (m *memStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memStore) conflict(self int64, user *User) error {
	for id, row := range m.rows {
		if id == self {
			continue
		}
		if row.Username == user.Username {
			return shared.ErrUsernameTaken
		}
		if row.Email == user.Email {
			return shared.ErrEmailTaken
		}
	}
	return nil
}

// stubTokens issues deterministic tokens and remembers the subjects it saw.
type stubTokens struct {
	mu       sync.Mutex
	now      time.Time
	ttl      time.Duration
	subjects []string
	err      error
}

func (s *stubTokens) Issue(subject string) (auth.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return auth.Token{}, s.err
	}
	s.subjects = append(s.subjects, subject)
	return auth.Token{Value: "token-for-" + subject, Subject: subject, ExpiresAt: s.now.Add(s.ttl)}, nil
}

// countingHasher wraps a real hasher and counts Verify calls.
type countingHasher struct {
	PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (c *countingHasher) Verify(password, digest string) bool {
	c.mu.Lock()
	c.verifies++
	c.mu.Unlock()
	return c.PasswordHasher.Verify(password, digest)
}

type recordedEvent struct {
	event   string
	outcome string
}

type eventLog struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *eventLog) RecordAuthEvent(event, outcome string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{event: event, outcome: outcome})
}
