package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests
// and simple single-process deployments.
type MemoryStorage struct {
	mu       sync.RWMutex
	snaps    map[string]TariffSnapshot
	readings map[string][]MeterReading // keyed by household
	settings map[string]string
	users    map[string]User
	tokens   map[string]Token
	rules    []CasbinRule
	email    *EmailConfig
	jobs     map[string]ScheduledJob
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		snaps:    make(map[string]TariffSnapshot),
		readings: make(map[string][]MeterReading),
		settings: make(map[string]string),
		users:    make(map[string]User),
		tokens:   make(map[string]Token),
		jobs:     make(map[string]ScheduledJob),
	}
}

func (m *MemoryStorage) Close() error                   { return nil }
func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

// Tariff snapshots

func (m *MemoryStorage) GetTariffSnapshot(ctx context.Context, source string) (*TariffSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snaps[source]
	if !ok {
		return nil, nil
	}
	cp := s
	return &cp, nil
}

func (m *MemoryStorage) SaveTariffSnapshot(ctx context.Context, snap TariffSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	m.snaps[snap.Source] = snap
	return nil
}

// Meter readings

func (m *MemoryStorage) SaveMeterReading(ctx context.Context, r MeterReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings[r.HouseholdID] = append(m.readings[r.HouseholdID], r)
	sort.Slice(m.readings[r.HouseholdID], func(i, j int) bool {
		return m.readings[r.HouseholdID][i].ReadAt.Before(m.readings[r.HouseholdID][j].ReadAt)
	})
	return nil
}

func (m *MemoryStorage) ListMeterReadings(ctx context.Context, householdID string) ([]MeterReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.readings[householdID]
	out := make([]MeterReading, len(src))
	copy(out, src)
	return out, nil
}

func (m *MemoryStorage) LatestMeterReading(ctx context.Context, householdID string) (*MeterReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.readings[householdID]
	if len(src) == 0 {
		return nil, nil
	}
	cp := src[len(src)-1]
	return &cp, nil
}

// Settings

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// Users

func (m *MemoryStorage) CreateUser(ctx context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

func (m *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) UpdateUser(ctx context.Context, user User) error {
	return m.CreateUser(ctx, user)
}

func (m *MemoryStorage) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *MemoryStorage) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

// Tokens

func (m *MemoryStorage) CreateToken(ctx context.Context, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = token
	return nil
}

func (m *MemoryStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) ListTokens(ctx context.Context, userID string) ([]Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Token
	for _, t := range m.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryStorage) DeleteToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func (m *MemoryStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil
	}
	now := time.Now()
	t.LastUsedAt = &now
	m.tokens[id] = t
	return nil
}

// Casbin rules

func (m *MemoryStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CasbinRule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

func (m *MemoryStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule)
	return nil
}

func (m *MemoryStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rules {
		if r.PType == rule.PType && r.V0 == rule.V0 && r.V1 == rule.V1 && r.V2 == rule.V2 {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return nil
}

// Email config

func (m *MemoryStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.email == nil {
		return nil, nil
	}
	cp := *m.email
	return &cp, nil
}

func (m *MemoryStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email = &config
	return nil
}

// Scheduled jobs

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := 0
	if success {
		status = 1
	}
	m.jobs[name] = ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return nil
}
