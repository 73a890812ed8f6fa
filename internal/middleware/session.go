package middleware

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const sessionName = "admin-session"

// SessionManager wraps the cookie store guarding the admin surface.
type SessionManager struct {
	store *sessions.CookieStore
}

func NewSessionManager(secret string) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store}
}

func (m *SessionManager) IsAdmin(c echo.Context) bool {
	sess, err := m.store.Get(c.Request(), sessionName)
	if err != nil {
		return false
	}
	admin, _ := sess.Values["admin"].(bool)
	return admin
}

func (m *SessionManager) SetAdmin(c echo.Context) error {
	sess, _ := m.store.Get(c.Request(), sessionName)
	sess.Values["admin"] = true
	return sess.Save(c.Request(), c.Response())
}

func (m *SessionManager) Clear(c echo.Context) error {
	sess, _ := m.store.Get(c.Request(), sessionName)
	sess.Options.MaxAge = -1
	delete(sess.Values, "admin")
	return sess.Save(c.Request(), c.Response())
}

func (m *SessionManager) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.IsAdmin(c) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "unauthorized"})
		}
		return next(c)
	}
}
