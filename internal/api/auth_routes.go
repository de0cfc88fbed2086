package api

import (
	"encoding/json"
	"net/http"

	"github.com/contaluz/contaluz/internal/auth"
	"github.com/contaluz/contaluz/internal/storage"
)

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	TokenName string `json:"token_name"`
	ExpiresIn string `json:"expires_in"`
}

func registerAuthRoutes(mux *http.ServeMux, authSvc *auth.Service) {
	mux.HandleFunc("/api/v1/auth/login", instrument("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		user, err := authSvc.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		expiresAt, err := auth.ParseExpirationDuration(req.ExpiresIn)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		name := req.TokenName
		if name == "" {
			name = "login"
		}
		token, raw, err := authSvc.CreateToken(r.Context(), user.ID, name, user.Role, expiresAt)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":      raw,
			"expires_at": token.ExpiresAt,
			"role":       token.Role,
		})
	}))

	mux.Handle("/api/v1/auth/me", authSvc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := r.Context().Value(auth.TokenContextKey).(*storage.Token)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"user_id": token.UserID,
			"role":    token.Role,
		})
	})))
}
