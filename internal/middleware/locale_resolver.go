package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/BBplayer2021/BioPlotLab/internal/i18n"
)

// LangCookieName stores the visitor's language choice. The browser script
// mirrors it into localStorage under the same name.
const LangCookieName = "bioplot-lang"

const langCookieTTL = 365 * 24 * time.Hour

// Locale resolves the preferred language in this order: ?hl= override, session,
// bioplot-lang cookie, Accept-Language, fallback. The result is kept in the session.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// make fallback available to request context for helpers
			ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
			r = r.WithContext(ctx)
			s := GetSession(r)

			if q, ok := bundle.Normalize(r.URL.Query().Get("hl")); ok {
				SetLang(w, r, q)
			} else if !isSupported(bundle, s.Locale) {
				s.Locale = bundle.Resolve(r.Header.Get("Accept-Language"))
				if c, err := r.Cookie(LangCookieName); err == nil {
					if l, ok := bundle.Normalize(c.Value); ok {
						s.Locale = l
					}
				}
				s.MarkDirty()
			}
			// surface Content-Language
			w.Header().Set("Content-Language", i18n.HTMLLang(s.Locale))
			next.ServeHTTP(w, r)
		})
	}
}

func isSupported(bundle *i18n.Bundle, lang string) bool {
	l, ok := bundle.Normalize(lang)
	return ok && l == lang
}

// SetLang records an explicit language choice in the session and cookie.
func SetLang(w http.ResponseWriter, r *http.Request, lang string) {
	s := GetSession(r)
	if s.Locale != lang {
		s.Locale = lang
		s.MarkDirty()
	}
	w.Header().Set("Content-Language", i18n.HTMLLang(lang))
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    lang,
		Path:     "/",
		Secure:   cookieSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(langCookieTTL),
	})
}

// Lang returns current lang from session or the bundle fallback.
func Lang(r *http.Request) string {
	if s := GetSession(r); s != nil && s.Locale != "" {
		return s.Locale
	}
	if v := r.Context().Value(ctxKeyLocaleFB); v != nil {
		if fb, ok := v.(string); ok && fb != "" {
			return fb
		}
	}
	return "zh"
}

// VaryLocale marks responses as varying by the inputs Locale reads.
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language, Cookie")
		next.ServeHTTP(w, r)
	})
}
