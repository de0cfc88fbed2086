package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contaluz/contaluz/internal/metrics"
)

// PostgresPoolStorage backs the Storage interface with a pgx connection
// pool. It is the backend of choice for multi-instance deployments because
// it exposes Postgres advisory locks to the cron workers.
type PostgresPoolStorage struct {
	pool *pgxpool.Pool
}

func OpenPostgresPool(ctx context.Context, dsn string) (*PostgresPoolStorage, error) {
	if dsn == "" {
		dsn = "postgres://localhost:5432/contaluz?sslmode=disable"
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &PostgresPoolStorage{pool: pool}, nil
}

func (s *PostgresPoolStorage) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresPoolStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ReportPoolMetrics pushes the pool's connection stats to Prometheus.
func (s *PostgresPoolStorage) ReportPoolMetrics() {
	st := s.pool.Stat()
	metrics.UpdateDBPoolMetrics("postgrespool",
		float64(st.TotalConns()), float64(st.IdleConns()), float64(st.AcquiredConns()))
}

// Tariff snapshots

func (s *PostgresPoolStorage) GetTariffSnapshot(ctx context.Context, source string) (*TariffSnapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, payload, fetched_at
		FROM tariff_snapshots
		WHERE source=$1
		ORDER BY id DESC
		LIMIT 1
	`, source)

	snap := TariffSnapshot{Source: source}
	if err := row.Scan(&snap.ID, &snap.Payload, &snap.FetchedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *PostgresPoolStorage) SaveTariffSnapshot(ctx context.Context, snap TariffSnapshot) error {
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tariff_snapshots (source, payload, fetched_at)
		VALUES ($1,$2,$3)
	`, snap.Source, snap.Payload, snap.FetchedAt)
	return err
}

// Meter readings

func (s *PostgresPoolStorage) SaveMeterReading(ctx context.Context, r MeterReading) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO meter_readings (id, household_id, value_kwh, read_at, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, r.ID, r.HouseholdID, r.ValueKWh, r.ReadAt, r.CreatedAt)
	return err
}

func (s *PostgresPoolStorage) ListMeterReadings(ctx context.Context, householdID string) ([]MeterReading, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, household_id, value_kwh, read_at, created_at
		FROM meter_readings
		WHERE household_id=$1
		ORDER BY read_at ASC
	`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MeterReading
	for rows.Next() {
		var r MeterReading
		if err := rows.Scan(&r.ID, &r.HouseholdID, &r.ValueKWh, &r.ReadAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) LatestMeterReading(ctx context.Context, householdID string) (*MeterReading, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, household_id, value_kwh, read_at, created_at
		FROM meter_readings
		WHERE household_id=$1
		ORDER BY read_at DESC
		LIMIT 1
	`, householdID)

	var r MeterReading
	if err := row.Scan(&r.ID, &r.HouseholdID, &r.ValueKWh, &r.ReadAt, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Settings

func (s *PostgresPoolStorage) GetSetting(ctx context.Context, key string) (string, error) {
	row := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *PostgresPoolStorage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at
	`, key, value, time.Now())
	return err
}

// Users

func (s *PostgresPoolStorage) CreateUser(ctx context.Context, u User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	return err
}

func (s *PostgresPoolStorage) scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *PostgresPoolStorage) GetUser(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM users WHERE id=$1
	`, id))
}

func (s *PostgresPoolStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM users WHERE username=$1
	`, username))
}

func (s *PostgresPoolStorage) UpdateUser(ctx context.Context, u User) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET username=$2, email=$3, password_hash=$4, role=$5, updated_at=$6
		WHERE id=$1
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, time.Now())
	return err
}

func (s *PostgresPoolStorage) DeleteUser(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

func (s *PostgresPoolStorage) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM users
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Tokens

func (s *PostgresPoolStorage) CreateToken(ctx context.Context, t Token) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (id, user_id, name, token_hash, role, created_at, expires_at, last_used_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, t.ID, t.UserID, t.Name, t.TokenHash, t.Role, t.CreatedAt, t.ExpiresAt, t.LastUsedAt)
	return err
}

func (s *PostgresPoolStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, token_hash, role, created_at, expires_at, last_used_at
		FROM tokens WHERE token_hash=$1
	`, hash)

	var t Token
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.Role, &t.CreatedAt, &t.ExpiresAt, &t.LastUsedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (s *PostgresPoolStorage) ListTokens(ctx context.Context, userID string) ([]Token, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, token_hash, role, created_at, expires_at, last_used_at
		FROM tokens WHERE user_id=$1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Token
	for rows.Next() {
		var t Token
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.Role, &t.CreatedAt, &t.ExpiresAt, &t.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) DeleteToken(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM tokens WHERE id=$1`, id)
	return err
}

func (s *PostgresPoolStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE tokens SET last_used_at=$2 WHERE id=$1`, id, time.Now())
	return err
}

// Casbin rules

func (s *PostgresPoolStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, ptype, v0, v1, v2, v3, v4, v5 FROM casbin_rules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CasbinRule
	for rows.Next() {
		var r CasbinRule
		if err := rows.Scan(&r.ID, &r.PType, &r.V0, &r.V1, &r.V2, &r.V3, &r.V4, &r.V5); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) AddCasbinRule(ctx context.Context, r CasbinRule) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO casbin_rules (ptype, v0, v1, v2, v3, v4, v5)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, r.PType, r.V0, r.V1, r.V2, r.V3, r.V4, r.V5)
	return err
}

func (s *PostgresPoolStorage) RemoveCasbinRule(ctx context.Context, r CasbinRule) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM casbin_rules WHERE ptype=$1 AND v0=$2 AND v1=$3 AND v2=$4
	`, r.PType, r.V0, r.V1, r.V2)
	return err
}

// Email config

func (s *PostgresPoolStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, provider, host, port, username, password, from_address, from_name,
		       api_key, encryption, enabled, created_at, updated_at
		FROM email_configs LIMIT 1
	`)

	var c EmailConfig
	err := row.Scan(&c.ID, &c.Provider, &c.Host, &c.Port, &c.Username, &c.Password,
		&c.FromAddress, &c.FromName, &c.APIKey, &c.Encryption, &c.Enabled, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *PostgresPoolStorage) SaveEmailConfig(ctx context.Context, c EmailConfig) error {
	if c.ID == "" {
		c.ID = "default"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_configs (id, provider, host, port, username, password, from_address,
		                           from_name, api_key, encryption, enabled, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			provider=EXCLUDED.provider, host=EXCLUDED.host, port=EXCLUDED.port,
			username=EXCLUDED.username, password=EXCLUDED.password,
			from_address=EXCLUDED.from_address, from_name=EXCLUDED.from_name,
			api_key=EXCLUDED.api_key, encryption=EXCLUDED.encryption,
			enabled=EXCLUDED.enabled, updated_at=EXCLUDED.updated_at
	`, c.ID, c.Provider, c.Host, c.Port, c.Username, c.Password, c.FromAddress,
		c.FromName, c.APIKey, c.Encryption, c.Enabled, time.Now(), time.Now())
	return err
}

// Scheduled jobs & locking

func (s *PostgresPoolStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scheduled_jobs (name, last_run_at, last_duration_ms, last_success, last_error)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (name) DO UPDATE SET
			last_run_at=EXCLUDED.last_run_at, last_duration_ms=EXCLUDED.last_duration_ms,
			last_success=EXCLUDED.last_success, last_error=EXCLUDED.last_error
	`, name, started, dur.Milliseconds(), status, errMsg)
	return err
}

func (s *PostgresPoolStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok)
	return ok, err
}

func (s *PostgresPoolStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, key).Scan(&ok)
	return ok, err
}
