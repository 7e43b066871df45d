package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gltdhd/Spring-MVC-2/cmd/identity"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/auth/session"
	"github.com/gltdhd/Spring-MVC-2/cmd/security/password"
)

type testEnv struct {
	h     *Handler
	mux   *http.ServeMux
	local *session.Local[identity.Member]
	store *identity.MemoryStore
}

func newTestEnv(t *testing.T, cfg Config, opts ...HandlerOption) *testEnv {
	t.Helper()

	pw := password.DefaultConfig()
	pw.Params.MemoryKiB = 8 * 1024
	pw.Params.Iterations = 1

	st := identity.NewMemoryStore()
	auth := identity.NewAuthenticator(st, pw)
	if _, err := auth.Register(context.Background(), identity.RegisterInput{LoginID: "test", Name: "tester", Password: "test!"}); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	local := session.NewLocal[identity.Member](nil)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := NewHandler(log, cfg, auth, local, opts...)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /validation/v1/items", h.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, _ := MemberFromContext(r.Context())
		_, _ = io.WriteString(w, m.Name)
	})))
	return &testEnv{h: h, mux: mux, local: local, store: st}
}

func (e *testEnv) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "mySessionId" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestLogin_SuccessSetsCookieAndRedirects(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, DefaultConfig())

	rr := e.do(t, http.MethodPost, "/login?redirectURL=/validation/v1/items", `{"loginId":"test","password":"test!"}`)
	if rr.Code != http.StatusFound {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/validation/v1/items" {
		t.Fatalf("Location=%q", loc)
	}
	c := sessionCookie(t, rr)
	if !c.HttpOnly || c.Path != "/" || c.Value == "" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	m, ok := e.local.Manager().Get(c.Value)
	if !ok || m.LoginID != "test" {
		t.Fatalf("session not stored for token: (%+v,%v)", m, ok)
	}
	if m.PasswordHash != "" {
		t.Fatalf("session principal must not carry the password hash")
	}
}

func TestLogin_AgainRetiresPreviousSession(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, DefaultConfig())

	first := sessionCookie(t, e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"test!"}`))
	rr := e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"test!"}`, first)
	if rr.Code != http.StatusFound {
		t.Fatalf("second login status=%d", rr.Code)
	}
	second := sessionCookie(t, rr)
	if second.Value == first.Value {
		t.Fatalf("second login reused the session token")
	}

	if _, ok := e.local.Manager().Get(first.Value); ok {
		t.Fatalf("previous session token still resolves")
	}
	if _, ok := e.local.Manager().Get(second.Value); !ok {
		t.Fatalf("new session token does not resolve")
	}
	if n := e.local.Manager().Len(); n != 1 {
		t.Fatalf("expected 1 live session, got %d", n)
	}
}

func TestLogin_DefaultAndUnsafeRedirects(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, DefaultConfig())

	for target, want := range map[string]string{
		"/login":                                "/",
		"/login?redirectURL=https://evil.test/": "/",
		"/login?redirectURL=//evil.test":        "/",
		"/login?redirectURL=/items%3Fa%3D1":     "/items?a=1",
	} {
		rr := e.do(t, http.MethodPost, target, `{"loginId":"test","password":"test!"}`)
		if rr.Code != http.StatusFound {
			t.Fatalf("%s: status=%d", target, rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != want {
			t.Fatalf("%s: Location=%q want=%q", target, loc, want)
		}
	}
}

func TestLogin_WrongPasswordIsGlobalError(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, DefaultConfig())

	rr := e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"nope"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	var resp formErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.GlobalErrors) != 1 || resp.GlobalErrors[0] != GlobalLoginFail {
		t.Fatalf("globalErrors=%v", resp.GlobalErrors)
	}
	if resp.Message != loginFailMessage {
		t.Fatalf("message=%q", resp.Message)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("failed login must not set cookies")
	}
	if e.local.Manager().Len() != 0 {
		t.Fatalf("failed login must not create a session")
	}
}

func TestLogin_FieldErrors(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, DefaultConfig())

	rr := e.do(t, http.MethodPost, "/login", `{"loginId":"  ","password":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	var resp formErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Errors["loginId"] == "" || resp.Errors["password"] == "" {
		t.Fatalf("errors=%v", resp.Errors)
	}

	rr = e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"test!","extra":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status=%d", rr.Code)
	}
}

func TestLogin_ThrottlesRepeatedFailures(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.LoginIPMax = 2
	cfg.LoginIPWindow = time.Minute
	e := newTestEnv(t, cfg, WithClock(func() time.Time { return now }))

	for i := 0; i < 2; i++ {
		if rr := e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"bad"}`); rr.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d status=%d", i, rr.Code)
		}
	}
	rr := e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"test!"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After=%q", rr.Header().Get("Retry-After"))
	}

	now = now.Add(2 * time.Minute)
	if rr := e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"test!"}`); rr.Code != http.StatusFound {
		t.Fatalf("after window status=%d", rr.Code)
	}
}

func TestHome_AnonymousAndLoggedIn(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, DefaultConfig())

	rr := e.do(t, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"member":null}` {
		t.Fatalf("anonymous home=(%d,%s)", rr.Code, rr.Body.String())
	}

	c := sessionCookie(t, e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"test!"}`))
	rr = e.do(t, http.MethodGet, "/", "", c)
	var resp struct {
		Member *identity.Member `json:"member"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil || resp.Member == nil || resp.Member.Name != "tester" {
		t.Fatalf("home=(%+v,%v)", resp.Member, err)
	}
	if strings.Contains(rr.Body.String(), "argon2") {
		t.Fatalf("home leaked password hash: %s", rr.Body.String())
	}
}

func TestLogout_ExpiresSessionAndCookie(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, DefaultConfig())

	c := sessionCookie(t, e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"test!"}`))

	rr := e.do(t, http.MethodPost, "/logout", "", c)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Fatalf("logout=(%d,%q)", rr.Code, rr.Header().Get("Location"))
	}
	cleared := sessionCookie(t, rr)
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Fatalf("cookie not expired: %+v", cleared)
	}
	if _, ok := e.local.Manager().Get(c.Value); ok {
		t.Fatalf("session still present after logout")
	}

	// Logging out again, or without a cookie, is harmless.
	if rr := e.do(t, http.MethodPost, "/logout", "", c); rr.Code != http.StatusFound {
		t.Fatalf("second logout status=%d", rr.Code)
	}
	if rr := e.do(t, http.MethodPost, "/logout", ""); rr.Code != http.StatusFound {
		t.Fatalf("anonymous logout status=%d", rr.Code)
	}
}

func TestRequireLogin(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, DefaultConfig())

	rr := e.do(t, http.MethodGet, "/validation/v1/items", "")
	if rr.Code != http.StatusFound {
		t.Fatalf("status=%d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login?redirectURL=%2Fvalidation%2Fv1%2Fitems" {
		t.Fatalf("Location=%q", loc)
	}

	stale := &http.Cookie{Name: "mySessionId", Value: "not-a-session"}
	if rr := e.do(t, http.MethodGet, "/validation/v1/items", "", stale); rr.Code != http.StatusFound {
		t.Fatalf("unknown token status=%d", rr.Code)
	}

	c := sessionCookie(t, e.do(t, http.MethodPost, "/login", `{"loginId":"test","password":"test!"}`))
	rr = e.do(t, http.MethodGet, "/validation/v1/items", "", c)
	if rr.Code != http.StatusOK || rr.Body.String() != "tester" {
		t.Fatalf("protected=(%d,%q)", rr.Code, rr.Body.String())
	}
}

func TestMembers_AddAndMe(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, DefaultConfig())

	rr := e.do(t, http.MethodPost, "/members/add", `{"loginId":"alice","name":"Alice","password":"secret"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := e.do(t, http.MethodPost, "/members/add", `{"loginId":"ALICE","name":"Other","password":"secret"}`); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status=%d", rr.Code)
	}
	rr = e.do(t, http.MethodPost, "/members/add", `{"loginId":"bob","name":"","password":"secret"}`)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), `"name"`) {
		t.Fatalf("blank name=(%d,%s)", rr.Code, rr.Body.String())
	}

	if rr := e.do(t, http.MethodGet, "/members/me", ""); rr.Code != http.StatusFound {
		t.Fatalf("anonymous me status=%d", rr.Code)
	}
	c := sessionCookie(t, e.do(t, http.MethodPost, "/login", `{"loginId":"alice","password":"secret"}`))
	rr = e.do(t, http.MethodGet, "/members/me", "", c)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"loginId":"alice"`) {
		t.Fatalf("me=(%d,%s)", rr.Code, rr.Body.String())
	}
}

type failingBackend struct{}

func (failingBackend) Create(context.Context, identity.Member) (string, error) {
	return "", errors.New("backend down")
}

func (failingBackend) Get(context.Context, string) (identity.Member, bool, error) {
	return identity.Member{}, false, errors.New("backend down")
}

func (failingBackend) Expire(context.Context, string) error { return errors.New("backend down") }

func TestBackendFailures(t *testing.T) {
	t.Parallel()

	pw := password.DefaultConfig()
	pw.Params.MemoryKiB = 8 * 1024
	pw.Params.Iterations = 1
	auth := identity.NewAuthenticator(identity.NewMemoryStore(), pw)
	if _, err := auth.Register(context.Background(), identity.RegisterInput{LoginID: "test", Name: "tester", Password: "test!"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h, err := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), DefaultConfig(), auth, failingBackend{})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"loginId":"test","password":"test!"}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("create failure status=%d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "mySessionId", Value: "tok"})
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"member":null`) {
		t.Fatalf("lookup failure should read as anonymous: (%d,%s)", rr.Code, rr.Body.String())
	}
}

func TestSafeRedirect(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                  "/",
		"/":                 "/",
		"/items/1?status=1": "/items/1?status=1",
		"items":             "/",
		"//evil.test":       "/",
		"/\\evil.test":      "/",
		"http://evil.test":  "/",
		"/a\r\nSet-Cookie:": "/",
	}
	for in, want := range cases {
		if got := safeRedirect(in); got != want {
			t.Fatalf("safeRedirect(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestEvaluateWindowThrottle(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

	failures := []time.Time{now.Add(-2 * time.Minute), now.Add(-1 * time.Minute)}

	blocked, retry := evaluateWindowThrottle(now, failures, 2, 5*time.Minute)
	if !blocked || retry != 3*time.Minute {
		t.Fatalf("expected block for 3m, got (%v,%v)", blocked, retry)
	}
	if blocked, _ := evaluateWindowThrottle(now, failures, 3, 5*time.Minute); blocked {
		t.Fatalf("expected window throttle to allow")
	}
}
