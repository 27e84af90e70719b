package auth

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/accounts/internal/platform/httpx"
	"github.com/odyssey-erp/accounts/internal/shared"
)

// Middleware validates the session cookie before handing the request on.
type Middleware struct {
	Issuer     *Issuer
	CookieName string
	Logger     *slog.Logger
}

// RequireSession rejects requests without a valid session cookie.
func (m Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.CookieName)
		if err != nil || cookie.Value == "" {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		tok, err := m.Issuer.Validate(cookie.Value)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("session rejected", slog.Any("error", err))
			}
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), tok)))
	})
}
