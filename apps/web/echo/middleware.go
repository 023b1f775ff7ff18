package echoui

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/core/session"
)

const contextSessionKey = "session"

// sessionMiddleware binds the request to its browser session, issuing a new
// session (and cookie) when none exists yet. The cookie value is an opaque
// identifier into the process-local session store.
func sessionMiddleware(store *session.Store) echo.MiddlewareFunc {
	cookieName := core.Conf.GetString("sessionCookie")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var sess *session.Session
			if cookie, err := ctx.Cookie(cookieName); err == nil {
				sess, _ = store.Get(cookie.Value)
			}
			if sess == nil {
				sess = store.Issue()
				ctx.SetCookie(&http.Cookie{
					Name:     cookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func currentSession(ctx echo.Context) *session.Session {
	return ctx.Get(contextSessionKey).(*session.Session)
}
