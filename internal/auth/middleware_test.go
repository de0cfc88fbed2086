package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contaluz/contaluz/internal/storage"
)

func TestRequirePermissionGatesByRole(t *testing.T) {
	svc, err := NewService(storage.NewMemory())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	viewer, err := svc.Register(ctx, "viewer", "segredo123", "viewer")
	if err != nil {
		t.Fatalf("register viewer: %v", err)
	}
	admin, err := svc.Register(ctx, "admin", "segredo123", "admin")
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}

	_, viewerTok, err := svc.CreateToken(ctx, viewer.ID, "cli", "viewer", nil)
	if err != nil {
		t.Fatalf("viewer token: %v", err)
	}
	_, adminTok, err := svc.CreateToken(ctx, admin.ID, "cli", "admin", nil)
	if err != nil {
		t.Fatalf("admin token: %v", err)
	}

	h := svc.Middleware(svc.RequirePermission("settings", "write",
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"viewer forbidden", viewerTok, http.StatusForbidden},
		{"admin allowed", adminTok, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/protected", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}
