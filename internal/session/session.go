// Package session adapts gin-contrib sessions to the typed per-caller state
// the shop keeps: the authenticated user id and the admin flag.
package session

import (
	"github.com/gin-contrib/sessions" // Gin session middleware
	"github.com/gin-gonic/gin"        // Gin web framework
)

// CookieName is the session cookie.
const CookieName = "shop_session"

// Keys written by authentication.
const (
	KeyUserID  = "UserId"
	KeyIsAdmin = "IsAdmin"
)

// Store is per-caller key/value state tied to the session cookie.
type Store interface {
	GetInt(key string) (int, bool)
	GetString(key string) (string, bool)
	SetInt(key string, v int)
	SetString(key string, v string)
	Clear()
	Save() error
}

// Middleware installs the session for every request.
func Middleware(store *RedisStore) gin.HandlerFunc {
	return sessions.Sessions(CookieName, store)
}

type ginStore struct {
	s    sessions.Session
	opts sessions.Options
}

// FromContext returns the Store of the current request. store supplies the
// cookie options restored after a Clear.
func FromContext(c *gin.Context, store *RedisStore) Store {
	return &ginStore{s: sessions.Default(c), opts: store.DefaultOptions()}
}

func (g *ginStore) GetInt(key string) (int, bool) {
	v, ok := g.s.Get(key).(int)
	return v, ok
}

func (g *ginStore) GetString(key string) (string, bool) {
	v, ok := g.s.Get(key).(string)
	return v, ok
}

func (g *ginStore) SetInt(key string, v int) {
	g.s.Options(g.opts)
	g.s.Set(key, v)
}

func (g *ginStore) SetString(key string, v string) {
	g.s.Options(g.opts)
	g.s.Set(key, v)
}

// Clear drops every value; the next Save deletes the server-side record and
// expires the cookie.
func (g *ginStore) Clear() {
	g.s.Clear()
	expired := g.opts
	expired.MaxAge = -1
	g.s.Options(expired)
}

func (g *ginStore) Save() error {
	return g.s.Save()
}
