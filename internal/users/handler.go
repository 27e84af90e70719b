package users

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/accounts/internal/auth"
	"github.com/odyssey-erp/accounts/internal/platform/httpx"
	"github.com/odyssey-erp/accounts/internal/shared"
)

// CookieConfig describes the session cookie written on sign-in.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
}

// Handler wires HTTP endpoints for the account lifecycle.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	cookie   CookieConfig
	sessions auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cookie CookieConfig, sessions auth.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, cookie: cookie, sessions: sessions}
}

// MountRoutes registers account routes on the /auth router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/signin", h.signin)
	r.With(h.sessions.RequireSession).Get("/session", h.session)
	r.Get("/user/{id}", h.getUser)
	r.Put("/user/{id}", h.updateUser)
	r.Delete("/user/{id}", h.deleteUser)
}

type sessionResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}
	in := RegisterInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if _, err := h.service.Register(r.Context(), in); err != nil {
		h.fail(w, r, "register", err)
		return
	}
	httpx.Message(w, http.StatusCreated, "User successfully created")
}

func (h *Handler) signin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}
	in := LoginInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	sess, err := h.service.Login(r.Context(), in)
	if err != nil {
		h.fail(w, r, "signin", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    sess.Token.Value,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		Expires:  sess.Token.ExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.Message(w, http.StatusOK, "User login successful")
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	tok, ok := auth.SessionFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{Username: tok.Subject, ExpiresAt: tok.ExpiresAt})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in UpdateInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			httpx.RespondError(w, shared.ErrInvalidRequest)
			return
		}
		in = UpdateInput{Username: r.PostFormValue("username"), Email: r.PostFormValue("email")}
	} else if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}
	user, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op+" failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
