package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gltdhd/Spring-MVC-2/cmd/identity"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/auth/session"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/httpjson"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/metrics"
)

const loginFailMessage = "login id or password is incorrect"

// Handler serves the login, logout, home and member routes.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	auth     *identity.Authenticator
	sessions session.Backend[identity.Member]
	metrics  *metrics.Metrics
	throttle *loginThrottle
	now      func() time.Time
}

// HandlerOption customizes optional Handler collaborators.
type HandlerOption func(*Handler)

// WithMetrics records login outcomes on m.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithClock overrides the time source used by the login throttle.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler wires the login API over auth and sessions.
func NewHandler(log *slog.Logger, cfg Config, auth *identity.Authenticator, sessions session.Backend[identity.Member], opts ...HandlerOption) (*Handler, error) {
	if auth == nil {
		return nil, errors.New("authapi: authenticator is required")
	}
	if sessions == nil {
		return nil, errors.New("authapi: session backend is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(cfg.CookieName) == "" {
		cfg.CookieName = DefaultConfig().CookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		auth:     auth,
		sessions: sessions,
		throttle: newLoginThrottle(cfg.LoginIPMax, cfg.LoginIPWindow),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("GET /login", h.handleLoginForm)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /logout", h.handleLogout)
	mux.HandleFunc("POST /members/add", h.handleMemberAdd)
	mux.Handle("GET /members/me", h.RequireLogin(http.HandlerFunc(h.handleMe)))
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	var resp homeResponse
	if m, ok := h.currentMember(r); ok {
		resp.Member = &m
	}
	httpjson.Write(w, http.StatusOK, resp)
}

func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, loginForm{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := r.UserAgent()
	ipKey := ""
	if ip != nil {
		ipKey = ip.String()
	}

	if blocked, retry := h.throttle.blocked(ipKey, now); blocked {
		h.auditLoginRateLimited(ctx, ip, ua, retry)
		writeRateLimited(w, retry)
		return
	}

	var form loginForm
	if err := httpjson.Decode(w, r, h.cfg.MaxBodyBytes, &form); err != nil {
		h.metrics.LoginAttempt(metrics.LoginInvalid)
		httpjson.Error(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	form.LoginID = strings.TrimSpace(form.LoginID)
	if errs := loginFormErrors(form); len(errs) > 0 {
		h.metrics.LoginAttempt(metrics.LoginInvalid)
		httpjson.Write(w, http.StatusBadRequest, formErrorResponse{Errors: errs, Form: loginForm{LoginID: form.LoginID}})
		return
	}

	m, ok, err := h.auth.Login(ctx, form.LoginID, form.Password)
	if err != nil {
		h.metrics.LoginAttempt(metrics.LoginError)
		h.log.ErrorContext(ctx, "auth.login.failed", "err", err)
		httpjson.Error(w, http.StatusInternalServerError, "server_error", "server error")
		return
	}
	if !ok {
		h.metrics.LoginAttempt(metrics.LoginFail)
		h.throttle.fail(ipKey, now)
		h.auditLoginFailed(ctx, ip, ua, form.LoginID, "invalid_credentials")
		httpjson.Write(w, http.StatusBadRequest, formErrorResponse{
			GlobalErrors: []string{GlobalLoginFail},
			Message:      loginFailMessage,
			Form:         loginForm{LoginID: form.LoginID},
		})
		return
	}

	token, err := h.sessions.Create(ctx, m.Redacted())
	if err != nil {
		h.metrics.LoginAttempt(metrics.LoginError)
		h.log.ErrorContext(ctx, "auth.session.create_failed", "err", err, "member_id", m.ID)
		httpjson.Error(w, http.StatusInternalServerError, "server_error", "server error")
		return
	}

	if prev, ok := h.sessionToken(r); ok && prev != token {
		if err := h.sessions.Expire(ctx, prev); err != nil {
			h.log.WarnContext(ctx, "auth.session.expire_failed", "err", err, "member_id", m.ID)
		}
	}

	h.throttle.reset(ipKey)
	h.metrics.LoginAttempt(metrics.LoginSuccess)
	h.auditLoginSuccess(ctx, m.ID, ip, ua)
	h.setSessionCookie(w, token)
	httpjson.Redirect(w, r, safeRedirect(r.URL.Query().Get("redirectURL")))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token, ok := h.sessionToken(r); ok {
		if m, found, err := h.sessions.Get(ctx, token); err == nil && found {
			h.auditLogout(ctx, m.ID, clientIP(r, h.cfg.TrustProxy), r.UserAgent())
		}
		if err := h.sessions.Expire(ctx, token); err != nil {
			h.log.WarnContext(ctx, "auth.session.expire_failed", "err", err)
		}
	}
	h.expireSessionCookie(w)
	httpjson.Redirect(w, r, "/")
}

func (h *Handler) handleMemberAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in identity.RegisterInput
	if err := httpjson.Decode(w, r, h.cfg.MaxBodyBytes, &in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	m, err := h.auth.Register(ctx, in)
	if err != nil {
		if fe, ok := identity.AsFieldError(err); ok {
			httpjson.Write(w, http.StatusBadRequest, formErrorResponse{
				Errors: map[string]string{fe.Field: fe.Msg},
				Form:   identity.RegisterInput{LoginID: in.LoginID, Name: in.Name},
			})
			return
		}
		if identity.IsConflict(err) {
			httpjson.Error(w, http.StatusConflict, "conflict", "login id already registered")
			return
		}
		h.log.ErrorContext(ctx, "auth.member.add_failed", "err", err)
		httpjson.Error(w, http.StatusInternalServerError, "server_error", "server error")
		return
	}

	h.auditMemberAdded(ctx, m.ID, clientIP(r, h.cfg.TrustProxy), r.UserAgent())
	httpjson.Write(w, http.StatusCreated, memberResponse{Member: m.Redacted()})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	m, ok := MemberFromContext(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "login required")
		return
	}
	httpjson.Write(w, http.StatusOK, memberResponse{Member: m})
}

// currentMember resolves the session cookie. Backend failures are logged
// and the request is treated as anonymous.
func (h *Handler) currentMember(r *http.Request) (identity.Member, bool) {
	token, ok := h.sessionToken(r)
	if !ok {
		return identity.Member{}, false
	}
	m, found, err := h.sessions.Get(r.Context(), token)
	if err != nil {
		h.log.WarnContext(r.Context(), "auth.session.lookup_failed", "err", err)
		return identity.Member{}, false
	}
	return m, found
}

// safeRedirect accepts only local absolute paths; anything else is "/".
func safeRedirect(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	return raw
}
