package storage

import (
	"context"
	"time"
)

// Storage abstracts persistence for tariff snapshots, meter readings,
// users, and service settings.
type Storage interface {
	// Tariff snapshots
	GetTariffSnapshot(ctx context.Context, source string) (*TariffSnapshot, error)
	SaveTariffSnapshot(ctx context.Context, snap TariffSnapshot) error

	// Meter readings
	SaveMeterReading(ctx context.Context, r MeterReading) error
	ListMeterReadings(ctx context.Context, householdID string) ([]MeterReading, error)
	LatestMeterReading(ctx context.Context, householdID string) (*MeterReading, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Users
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)

	// Tokens
	CreateToken(ctx context.Context, token Token) error
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	ListTokens(ctx context.Context, userID string) ([]Token, error)
	DeleteToken(ctx context.Context, id string) error
	UpdateTokenLastUsed(ctx context.Context, id string) error

	// Casbin rules
	LoadCasbinRules(ctx context.Context) ([]CasbinRule, error)
	AddCasbinRule(ctx context.Context, rule CasbinRule) error
	RemoveCasbinRule(ctx context.Context, rule CasbinRule) error

	// Email config
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, config EmailConfig) error

	// Scheduled jobs
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	Ping(ctx context.Context) error
	Close() error
}

// AdvisoryLocker is implemented by backends that can coordinate
// multi-instance workers. SQLite and memory backends do not implement it;
// single-instance deployments run unguarded.
type AdvisoryLocker interface {
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
}
