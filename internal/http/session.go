package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ledger/internal/cache"
	applog "ledger/internal/log"
)

type session struct {
	Token     string
	ExpiresAt time.Time
}

// sessionStore holds bearer tokens issued after a successful login. Tokens
// expire after the TTL; the oldest are evicted past the size bound.
type sessionStore struct {
	cache *cache.LRUCache[session]
	ttl   time.Duration
	now   func() time.Time
}

func newSessionStore(maxSize int, ttl time.Duration) *sessionStore {
	return &sessionStore{
		cache: cache.NewLRUCache[session](maxSize, ttl),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (ss *sessionStore) issue() session {
	sess := session{Token: uuid.NewString(), ExpiresAt: ss.now().Add(ss.ttl)}
	ss.cache.Set(sess.Token, sess)
	return sess
}

func (ss *sessionStore) valid(token string) bool {
	if token == "" {
		return false
	}
	_, ok := ss.cache.Get(token)
	return ok
}

func (ss *sessionStore) revoke(token string) {
	ss.cache.Delete(token)
}

func (ss *sessionStore) revokeAll() {
	ss.cache.Purge()
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// requireSession rejects requests without a live session token.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.valid(bearerToken(r)) {
			applog.FromContext(r.Context()).DebugContext(r.Context(), "Missing or expired session",
				applog.FieldPath, r.URL.Path)
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
			return
		}
		next(w, r)
	}
}
