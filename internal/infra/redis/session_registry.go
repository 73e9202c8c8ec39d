package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"livequiz-service/internal/app"
	"livequiz-service/internal/infra/memory"
)

// SessionRegistry is a Redis-aware implementation of app.Registry.
// Notes:
//   - Sessions themselves stay in-process (the game core mutates them under
//     a per-session lock); Redis marks join-code liveness so other instances
//     and operators can see which codes are active.
//   - For true distribution you'd pair this with a pub/sub projector that
//     routes events across instances.
type SessionRegistry struct {
	inner  *memory.SessionRegistry
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		inner:  memory.NewSessionRegistry(),
		client: client,
		ttl:    ttl,
	}
}

func (r *SessionRegistry) Insert(s *app.Session) string {
	code := r.inner.Insert(s)
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(code), "1", r.ttl).Err()
	return code
}

func (r *SessionRegistry) Get(code string) (*app.Session, bool) {
	return r.inner.Get(code)
}

func (r *SessionRegistry) Bind(connID, code string) {
	r.inner.Bind(connID, code)
}

func (r *SessionRegistry) Unbind(connID string) {
	r.inner.Unbind(connID)
}

func (r *SessionRegistry) ByConn(connID string) (*app.Session, bool) {
	return r.inner.ByConn(connID)
}

func (r *SessionRegistry) Remove(code string) {
	r.inner.Remove(code)
	_ = r.client.Del(context.Background(), r.key(code)).Err()
}

func (r *SessionRegistry) key(code string) string {
	return "game:session:" + code
}
