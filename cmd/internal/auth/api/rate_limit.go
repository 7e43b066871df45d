package authapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gltdhd/Spring-MVC-2/cmd/internal/httpjson"
)

// maxThrottleKeys caps how many client IPs the throttle tracks at once.
const maxThrottleKeys = 10000

// loginThrottle counts failed logins per client IP within a sliding window.
// Keys whose failures have all aged out are swept at most once per window,
// or sooner when the map reaches maxKeys.
type loginThrottle struct {
	max     int
	window  time.Duration
	maxKeys int

	mu        sync.Mutex
	failures  map[string][]time.Time
	lastSweep time.Time
}

func newLoginThrottle(max int, window time.Duration) *loginThrottle {
	return &loginThrottle{max: max, window: window, maxKeys: maxThrottleKeys, failures: make(map[string][]time.Time)}
}

// blocked reports whether key is over the limit at now and how long until
// the oldest failure leaves the window.
func (t *loginThrottle) blocked(key string, now time.Time) (bool, time.Duration) {
	if t == nil || t.max <= 0 || key == "" {
		return false, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := pruneFailures(t.failures[key], now, t.window)
	if len(kept) == 0 {
		delete(t.failures, key)
	} else {
		t.failures[key] = kept
	}
	return evaluateWindowThrottle(now, kept, t.max, t.window)
}

func (t *loginThrottle) fail(key string, now time.Time) {
	if t == nil || t.max <= 0 || key == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	_, tracked := t.failures[key]
	if !tracked && (len(t.failures) >= t.maxKeys || now.Sub(t.lastSweep) >= t.window) {
		t.sweepLocked(now)
	}
	if !tracked && len(t.failures) >= t.maxKeys {
		t.evictOldestLocked()
	}
	t.failures[key] = append(pruneFailures(t.failures[key], now, t.window), now)
}

// sweepLocked drops every key with no failure left in the window.
func (t *loginThrottle) sweepLocked(now time.Time) {
	for k, v := range t.failures {
		if kept := pruneFailures(v, now, t.window); len(kept) == 0 {
			delete(t.failures, k)
		} else {
			t.failures[k] = kept
		}
	}
	t.lastSweep = now
}

// evictOldestLocked drops the key whose latest failure is the oldest.
func (t *loginThrottle) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, v := range t.failures {
		last := v[len(v)-1]
		if oldestKey == "" || last.Before(oldest) {
			oldestKey, oldest = k, last
		}
	}
	if oldestKey != "" {
		delete(t.failures, oldestKey)
	}
}

func (t *loginThrottle) reset(key string) {
	if t == nil || key == "" {
		return
	}
	t.mu.Lock()
	delete(t.failures, key)
	t.mu.Unlock()
}

// pruneFailures drops entries at or before now-window. failures is in
// insertion order, so the survivors are a suffix.
func pruneFailures(failures []time.Time, now time.Time, window time.Duration) []time.Time {
	cut := now.Add(-window)
	i := 0
	for i < len(failures) && !failures[i].After(cut) {
		i++
	}
	return failures[i:]
}

func evaluateWindowThrottle(now time.Time, failures []time.Time, max int, window time.Duration) (bool, time.Duration) {
	if max <= 0 || len(failures) < max {
		return false, 0
	}
	oldest := failures[len(failures)-max]
	retry := oldest.Add(window).Sub(now)
	if retry <= 0 {
		return false, 0
	}
	return true, retry
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64(retryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	httpjson.Error(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
