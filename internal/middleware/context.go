package middleware

import (
	"context"
)

type ctxKey string

const (
	ctxKeyIsHTMX       ctxKey = "is_htmx"
	ctxKeySession      ctxKey = "session"
	ctxKeyLocaleFB     ctxKey = "locale_fallback"
	ctxKeyCookieSecure ctxKey = "cookie_secure"
)

// WithHTMX records whether handlers should answer with a fragment.
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX reports whether the request wants a fragment instead of a full page.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}
