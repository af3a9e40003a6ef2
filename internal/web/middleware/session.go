package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

// Session makes sure every request carries a session id cookie and stores the
// id in the request context. Cookies holding anything other than a UUID are
// replaced.
func Session(cookieName string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(core.ContextWithSessionID(r.Context(), id)))
		})
	}
}
