package middleware

import (
	"context"
	"net/http"

	"github.com/soaringjerry/supportportal/internal/utils"
)

type ctxKey int

const (
	localeKey ctxKey = iota + 1
	requestIDKey
)

// LocaleMiddleware picks the request locale from the lang query parameter,
// the lang cookie or Accept-Language, in that order.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		explicit := r.URL.Query().Get("lang")
		if explicit == "" {
			if c, err := r.Cookie("lang"); err == nil {
				explicit = c.Value
			}
		}
		locale := utils.DetermineLocale(explicit, r.Header.Get("Accept-Language"), utils.SupportedLocales, utils.DefaultLocale)
		ctx := context.WithValue(r.Context(), localeKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LocaleFromContext retrieves the locale stored by LocaleMiddleware.
func LocaleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(localeKey).(string); ok {
		return s
	}
	return utils.DefaultLocale
}
