package session

import (
	"bytes"           // Gob buffers
	"encoding/base32" // Session id encoding
	"encoding/gob"    // Session value serialisation
	"errors"          // Error inspection
	"fmt"             // Message formatting
	"net/http"        // Cookies
	"strings"         // Id padding
	"time"            // Key TTLs

	"github.com/gin-contrib/sessions"             // Store options
	"github.com/gorilla/securecookie"             // Signed session ids
	gorillasessions "github.com/gorilla/sessions" // Session type
	"github.com/redis/go-redis/v9"                // Redis client
)

var errSessionMissing = errors.New("session not found")

// RedisStore keeps session values in Redis and only a signed session id in
// the cookie. Every save rewrites the key with a TTL of MaxAge seconds.
type RedisStore struct {
	client  *redis.Client        // Session backend
	codecs  []securecookie.Codec // Cookie signing
	options sessions.Options     // Cookie defaults
	prefix  string               // Redis key prefix
}

// NewRedisStore returns a store signing session ids with keyPairs.
func NewRedisStore(client *redis.Client, maxAge int, keyPairs ...[]byte) *RedisStore {
	return &RedisStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: sessions.Options{
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		prefix: "session:",
	}
}

// Options replaces the default cookie options.
func (s *RedisStore) Options(opts sessions.Options) {
	s.options = opts
}

// DefaultOptions returns the cookie options new sessions start with.
func (s *RedisStore) DefaultOptions() sessions.Options {
	return s.options
}

// Get returns the session cached in the request registry.
func (s *RedisStore) Get(r *http.Request, name string) (*gorillasessions.Session, error) {
	return gorillasessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie, or starts a fresh one
// when the cookie is absent, tampered with or expired server side.
func (s *RedisStore) New(r *http.Request, name string) (*gorillasessions.Session, error) {
	session := gorillasessions.NewSession(s, name)
	session.Options = s.options.ToGorillaOptions()
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.codecs...); err != nil {
		session.ID = ""
		return session, nil
	}
	if err := s.load(r, session); err != nil {
		if !errors.Is(err, errSessionMissing) {
			return session, err
		}
		session.ID = "" // Expired: do not resurrect the old id
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save writes the session to Redis, or deletes it when MaxAge < 0.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gorillasessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(r.Context(), s.prefix+session.ID).Err(); err != nil {
				return err
			}
		}
		http.SetCookie(w, gorillasessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}
	if session.ID == "" {
		session.ID = strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
	}
	if err := s.save(r, session); err != nil {
		return err
	}
	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, gorillasessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *RedisStore) save(r *http.Request, session *gorillasessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("session: encode values: %w", err)
	}
	maxAge := session.Options.MaxAge
	if maxAge == 0 {
		maxAge = s.options.MaxAge
	}
	ttl := time.Duration(maxAge) * time.Second
	return s.client.Set(r.Context(), s.prefix+session.ID, buf.Bytes(), ttl).Err()
}

func (s *RedisStore) load(r *http.Request, session *gorillasessions.Session) error {
	data, err := s.client.Get(r.Context(), s.prefix+session.ID).Bytes()
	if err == redis.Nil {
		return errSessionMissing
	}
	if err != nil {
		return err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&session.Values); err != nil {
		return fmt.Errorf("session: decode values: %w", err)
	}
	return nil
}
