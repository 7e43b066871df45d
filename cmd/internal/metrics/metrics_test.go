package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("scrape status=%d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	return string(body)
}

func TestMetrics_Exposition(t *testing.T) {
	t.Parallel()

	m := New()
	live := 3.0
	m.RegisterActiveSessions(func() float64 { return live })

	m.ObserveRequest(http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveRequest(http.MethodPost, 302, time.Millisecond)
	m.LoginAttempt(LoginSuccess)
	m.LoginAttempt(LoginFail)
	m.LoginAttempt(LoginFail)
	m.ItemInvalid([]string{"price", "globalError"})

	out := scrape(t, m)
	for _, want := range []string{
		`hello_http_requests_total{method="GET",status_class="2xx"} 1`,
		`hello_http_requests_total{method="POST",status_class="3xx"} 1`,
		`hello_login_attempts_total{result="fail"} 2`,
		`hello_login_attempts_total{result="success"} 1`,
		`hello_item_validation_failures_total{field="globalError"} 1`,
		`hello_item_validation_failures_total{field="price"} 1`,
		`hello_sessions_active 3`,
		`hello_http_request_duration_seconds_count{method="GET"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in exposition", want)
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveRequest(http.MethodGet, 200, time.Millisecond)
	m.LoginAttempt(LoginError)
	m.ItemInvalid([]string{"price"})
	m.RegisterActiveSessions(func() float64 { return 1 })
	if m.Registry() != nil {
		t.Fatalf("nil metrics must have nil registry")
	}

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("nil metrics handler status=%d want 404", rr.Code)
	}
}

func TestStatusClass(t *testing.T) {
	t.Parallel()

	cases := map[int]string{200: "2xx", 302: "3xx", 404: "4xx", 503: "5xx", 0: "unknown", 700: "unknown"}
	for in, want := range cases {
		if got := StatusClass(in); got != want {
			t.Fatalf("StatusClass(%d)=%q want=%q", in, got, want)
		}
	}
}
