package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/DrVanHelsing/CallTech/internal/agent"
)

const (
	keyPrefix  = "calltech:session:"
	lockSuffix = ":lock"

	// lockTTL bounds how long a crashed turn can hold a session.
	lockTTL = 2 * time.Minute
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps sessions as JSON values in Redis so several server
// instances can share them.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreWithClient(rdb, cfg.TTL), nil
}

func NewRedisStoreWithClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Close() error { return r.rdb.Close() }

func (r *RedisStore) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func sessionKey(id string) string { return keyPrefix + id }

// Create writes a new session with SET NX, so a repeated id keeps the
// stored session and returns it.
func (r *RedisStore) Create(ctx context.Context, id string) (*agent.Session, error) {
	s := agent.NewSession(newID(id))
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	ok, err := r.rdb.SetNX(ctx, sessionKey(s.ID), data, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis create: %w", err)
	}
	if !ok {
		return r.Load(ctx, s.ID)
	}
	return s, nil
}

func (r *RedisStore) Acquire(ctx context.Context, id string) (func(), error) {
	n, err := r.rdb.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis exists: %w", err)
	}
	if n == 0 {
		return nil, agent.ErrSessionNotFound
	}
	lock := sessionKey(id) + lockSuffix
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, lock, token, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock: %w", err)
	}
	if !ok {
		return nil, agent.ErrTurnInProgress
	}
	return func() {
		// The turn may have been cancelled by now; release regardless.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, r.rdb, []string{lock}, token).Err()
	}, nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*agent.Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, agent.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var s agent.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *agent.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionKey(s.ID), data, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKey(id), sessionKey(id)+lockSuffix).Err()
}
