package middleware

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/services"
)

// SessionUser is the identity bag stored in the session at login.
type SessionUser struct {
	UserID   string
	Username string
	Email    string
	Role     string
	Token    string
	LoginAt  time.Time
}

// Expired reports whether the session has outlived its absolute lifetime.
func (u *SessionUser) Expired(now time.Time) bool {
	return now.Sub(u.LoginAt) >= constants.SessionMaxAge
}

// Actor converts the session identity into a service caller.
func (u *SessionUser) Actor() services.Actor {
	return services.Actor{UserID: u.UserID, Username: u.Username, Token: u.Token}
}

// SaveSessionUser starts a fresh session for u.
func SaveSessionUser(c *gin.Context, u SessionUser) error {
	if u.LoginAt.IsZero() {
		u.LoginAt = time.Now()
	}
	session := sessions.Default(c)
	session.Clear()
	session.Set(constants.ContextKeyUserID, u.UserID)
	session.Set(constants.SessionKeyUsername, u.Username)
	session.Set(constants.SessionKeyEmail, u.Email)
	session.Set(constants.SessionKeyRole, u.Role)
	session.Set(constants.SessionKeyToken, u.Token)
	session.Set(constants.SessionKeyLoginAt, u.LoginAt.Unix())
	return session.Save()
}

// LoadSessionUser reads the identity from the session. An expired session is cleared.
func LoadSessionUser(c *gin.Context) (*SessionUser, bool) {
	session := sessions.Default(c)
	userID, _ := session.Get(constants.ContextKeyUserID).(string)
	if userID == "" {
		return nil, false
	}

	u := &SessionUser{UserID: userID}
	u.Username, _ = session.Get(constants.SessionKeyUsername).(string)
	u.Email, _ = session.Get(constants.SessionKeyEmail).(string)
	u.Role, _ = session.Get(constants.SessionKeyRole).(string)
	u.Token, _ = session.Get(constants.SessionKeyToken).(string)
	if ts, ok := session.Get(constants.SessionKeyLoginAt).(int64); ok {
		u.LoginAt = time.Unix(ts, 0)
	}

	if u.Expired(time.Now()) {
		_ = ClearSession(c)
		return nil, false
	}
	return u, true
}

func ClearSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

// CurrentUser returns the identity placed in the context by the auth middleware.
func CurrentUser(c *gin.Context) (*SessionUser, bool) {
	v, exists := c.Get(constants.ContextKeySessionUser)
	if !exists {
		return nil, false
	}
	u, ok := v.(*SessionUser)
	return u, ok
}

// CurrentActor returns the service caller for the request, or a zero Actor.
func CurrentActor(c *gin.Context) services.Actor {
	if u, ok := CurrentUser(c); ok {
		return u.Actor()
	}
	return services.Actor{}
}

func setUser(c *gin.Context, u *SessionUser) {
	c.Set(constants.ContextKeySessionUser, u)
}
