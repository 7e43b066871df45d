package authapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gltdhd/Spring-MVC-2/cmd/identity"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/httpjson"
)

type memberKey struct{}

// MemberFromContext returns the logged-in member attached by RequireLogin.
func MemberFromContext(ctx context.Context) (identity.Member, bool) {
	m, ok := ctx.Value(memberKey{}).(identity.Member)
	return m, ok
}

func withMember(ctx context.Context, m identity.Member) context.Context {
	return context.WithValue(ctx, memberKey{}, m)
}

// RequireLogin lets requests with a live session through and sends the rest
// to the login form, remembering where they were going.
func (h *Handler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.currentMember(r)
		if !ok {
			h.log.DebugContext(r.Context(), "auth.login_check.redirect", "path", r.URL.Path)
			httpjson.Redirect(w, r, "/login?redirectURL="+url.QueryEscape(r.URL.RequestURI()))
			return
		}
		next.ServeHTTP(w, r.WithContext(withMember(r.Context(), m)))
	})
}
