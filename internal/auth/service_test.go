package auth

import (
	"context"
	"testing"
	"time"

	"github.com/contaluz/contaluz/internal/storage"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, err := NewService(storage.NewMemory())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	u, err := svc.Register(ctx, "maria", "segredo123", "editor")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.PasswordHash == "segredo123" {
		t.Fatalf("password stored in clear")
	}

	if _, err := svc.Register(ctx, "maria", "outra", "viewer"); err == nil {
		t.Errorf("expected duplicate-username error")
	}

	got, err := svc.Authenticate(ctx, "maria", "segredo123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated id = %s, want %s", got.ID, u.ID)
	}

	if _, err := svc.Authenticate(ctx, "maria", "errada"); err == nil {
		t.Errorf("expected error for wrong password")
	}
	if _, err := svc.Authenticate(ctx, "ninguem", "segredo123"); err == nil {
		t.Errorf("expected error for unknown user")
	}
}

func TestTokenLifecycle(t *testing.T) {
	svc, err := NewService(storage.NewMemory())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	u, err := svc.Register(ctx, "joao", "segredo123", "viewer")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tok, raw, err := svc.CreateToken(ctx, u.ID, "cli", "viewer", nil)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if raw == "" || tok.TokenHash == raw {
		t.Fatalf("raw token must differ from stored hash")
	}

	got, err := svc.ValidateToken(ctx, raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("token user = %s, want %s", got.UserID, u.ID)
	}

	if _, err := svc.ValidateToken(ctx, "nao-existe"); err == nil {
		t.Errorf("expected error for unknown token")
	}

	past := time.Now().Add(-time.Hour)
	_, rawExpired, err := svc.CreateToken(ctx, u.ID, "velho", "viewer", &past)
	if err != nil {
		t.Fatalf("create expired token: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, rawExpired); err == nil {
		t.Errorf("expected error for expired token")
	}
}

func TestEnforceRoles(t *testing.T) {
	svc, err := NewService(storage.NewMemory())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	viewer, err := svc.Register(ctx, "viewer", "segredo123", "viewer")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	admin, err := svc.Register(ctx, "admin", "segredo123", "admin")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []struct {
		sub, obj, act string
		want          bool
	}{
		{viewer.ID, "tariffs", "read", true},
		{viewer.ID, "readings", "write", false},
		{viewer.ID, "settings", "read", false},
		{admin.ID, "settings", "write", true},
	}
	for _, tc := range cases {
		ok, err := svc.Enforce(tc.sub, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("enforce: %v", err)
		}
		if ok != tc.want {
			t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tc.sub, tc.obj, tc.act, ok, tc.want)
		}
	}
}

// Role assignments must survive a service rebuild over the same storage,
// as happens on process restart.
func TestEnforceSurvivesServiceRebuild(t *testing.T) {
	st := storage.NewMemory()
	ctx := context.Background()

	first, err := NewService(st)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	u, err := first.Register(ctx, "ana", "segredo123", "viewer")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	second, err := NewService(st)
	if err != nil {
		t.Fatalf("rebuild service: %v", err)
	}
	ok, err := second.Enforce(u.ID, "tariffs", "read")
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if !ok {
		t.Errorf("Enforce(%s, tariffs, read) = false after rebuild, want true", u.ID)
	}
	ok, err = second.Enforce(u.ID, "settings", "write")
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if ok {
		t.Errorf("viewer gained settings write after rebuild")
	}
}

func TestParseExpirationDuration(t *testing.T) {
	if v, err := ParseExpirationDuration("never"); err != nil || v != nil {
		t.Errorf("never: got %v err=%v", v, err)
	}
	if v, err := ParseExpirationDuration(""); err != nil || v != nil {
		t.Errorf("empty: got %v err=%v", v, err)
	}

	v, err := ParseExpirationDuration("30d")
	if err != nil || v == nil {
		t.Fatalf("30d: %v err=%v", v, err)
	}
	if until := time.Until(*v); until < 29*24*time.Hour || until > 31*24*time.Hour {
		t.Errorf("30d expiration off: %v", until)
	}

	if _, err := ParseExpirationDuration("2h30m"); err != nil {
		t.Errorf("go duration rejected: %v", err)
	}
	if _, err := ParseExpirationDuration("banana"); err == nil {
		t.Errorf("expected error for garbage input")
	}
	if _, err := ParseExpirationDuration("01/01/2020"); err == nil {
		t.Errorf("expected error for past date")
	}
}
