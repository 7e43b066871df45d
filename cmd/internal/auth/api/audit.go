package authapi

import (
	"context"
	"log/slog"
	"net"
	"time"
	"unicode/utf8"
)

func (h *Handler) auditLoginFailed(ctx context.Context, ip net.IP, ua, loginID, reason string) {
	h.audit(ctx, "auth.login.failed", ip, ua,
		slog.String("login_id", loginID),
		slog.String("reason", reason),
	)
}

func (h *Handler) auditLoginSuccess(ctx context.Context, memberID int64, ip net.IP, ua string) {
	h.audit(ctx, "auth.login.success", ip, ua, slog.Int64("member_id", memberID))
}

func (h *Handler) auditLoginRateLimited(ctx context.Context, ip net.IP, ua string, retryAfter time.Duration) {
	h.audit(ctx, "auth.login.rate_limited", ip, ua, slog.Int64("retry_after_s", int64(retryAfter.Seconds())))
}

func (h *Handler) auditLogout(ctx context.Context, memberID int64, ip net.IP, ua string) {
	h.audit(ctx, "auth.logout", ip, ua, slog.Int64("member_id", memberID))
}

func (h *Handler) auditMemberAdded(ctx context.Context, memberID int64, ip net.IP, ua string) {
	h.audit(ctx, "auth.member.added", ip, ua, slog.Int64("member_id", memberID))
}

const maxAuditUserAgent = 256

// audit writes one security event. Session tokens never appear here.
func (h *Handler) audit(ctx context.Context, action string, ip net.IP, ua string, attrs ...slog.Attr) {
	if h == nil || h.log == nil {
		return
	}
	base := []slog.Attr{slog.String("action", action)}
	if ip != nil {
		base = append(base, slog.String("ip", ip.String()))
	}
	if ua != "" {
		base = append(base, slog.String("user_agent", truncateUTF8(ua, maxAuditUserAgent)))
	}
	h.log.LogAttrs(ctx, slog.LevelInfo, "auth.audit", append(base, attrs...)...)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
