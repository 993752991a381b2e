package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned (wrapped) when Redis cannot be reached or an
// operation exceeds its bounded timeout. It is never returned for an absent
// key.
var ErrUnavailable = errors.New("session store unavailable")

// ErrNotFound is returned when the requested binding does not exist, was
// already consumed, or has expired. Callers cannot tell the three apart.
var ErrNotFound = errors.New("session entry not found")

const (
	refreshSegment = "refresh:"
	csrfSegment    = "csrf:"
	indexSegment   = "rti:"

	defaultOpTimeout = 2 * time.Second
)

// consumeRefreshScript atomically resolves a refresh binding, deletes it, and
// removes the token from the owning subject's secondary index. At most one
// concurrent caller observes the key present; everyone else gets nil.
const consumeRefreshScript = `
local subject = redis.call("GET", KEYS[1])
if not subject then
  return false
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[1] .. subject, ARGV[2])
return subject
`

var consumeRefreshLua = redis.NewScript(consumeRefreshScript)

// Store is the thin Redis adapter over the session key space. All operations
// are independently atomic at the Redis level and run under a bounded
// per-operation timeout; a timed-out call reports [ErrUnavailable], never
// [ErrNotFound].
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	opTimeout time.Duration
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix namespaces every key; opTimeout bounds each round-trip (a
// non-positive value selects the 2s default).
func NewStore(client redis.UniversalClient, prefix string, opTimeout time.Duration) *Store {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Store{
		redis:     client,
		prefix:    prefix,
		opTimeout: opTimeout,
	}
}

func (s *Store) refreshKey(token string) string {
	return s.prefix + ":" + refreshSegment + token
}

func (s *Store) csrfKey(subjectID string) string {
	return s.prefix + ":" + csrfSegment + subjectID
}

func (s *Store) indexKey(subjectID string) string {
	return s.prefix + ":" + indexSegment + subjectID
}

func (s *Store) indexPrefix() string {
	return s.prefix + ":" + indexSegment
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// SetWithTTL writes an arbitrary namespaced key with a per-key expiry.
//
//	Performance: 1 Redis SET.
func (s *Store) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.redis.Set(ctx, s.prefix+":"+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get reads an arbitrary namespaced key. Absent keys return [ErrNotFound].
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	value, err := s.redis.Get(ctx, s.prefix+":"+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

// Delete removes an arbitrary namespaced key. Deleting an absent key is not
// an error.
//
//	Performance: 1 Redis DEL.
func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.redis.Del(ctx, s.prefix+":"+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// SaveRefresh registers a refresh token for a subject and records it in the
// subject's secondary index. The index expiry is pushed out to the token TTL
// so the index never outlives its newest member.
//
//	Performance: 3 Redis commands in one MULTI/EXEC.
func (s *Store) SaveRefresh(ctx context.Context, token, subjectID string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.refreshKey(token), subjectID, ttl)
		pipe.SAdd(ctx, s.indexKey(subjectID), token)
		pipe.Expire(ctx, s.indexKey(subjectID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ConsumeRefresh atomically resolves and deletes a refresh binding, returning
// the subject it was bound to. The delete happens inside the script, so two
// concurrent consumers of the same token cannot both succeed: exactly one
// receives the subject, the other [ErrNotFound].
//
//	Performance: 1 Lua EVALSHA (GET + DEL + SREM).
func (s *Store) ConsumeRefresh(ctx context.Context, token string) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	result, err := consumeRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.refreshKey(token)},
		s.indexPrefix(),
		token,
	).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	subject, ok := result.(string)
	if !ok || subject == "" {
		return "", fmt.Errorf("%w: invalid consume script response", ErrUnavailable)
	}
	return subject, nil
}

// PeekRefresh resolves a refresh binding without consuming it.
//
//	Performance: 1 Redis GET.
func (s *Store) PeekRefresh(ctx context.Context, token string) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	subject, err := s.redis.Get(ctx, s.refreshKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return subject, nil
}

// DeleteRefresh removes a single refresh binding and its index entry. Used by
// compensation paths; absence is not an error.
func (s *Store) DeleteRefresh(ctx context.Context, token string) error {
	_, err := s.ConsumeRefresh(ctx, token)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// DeleteAllRefreshForSubject revokes every live refresh token bound to the
// subject via the secondary index. No key-space scan is involved.
//
// A token registered between the SMEMBERS read and the DEL is not captured by
// this call; it is bounded by its own TTL and by the next invocation. This is
// the same narrow race the per-user logout-all path accepts.
//
//	Performance: 1 SMEMBERS + 1 MULTI/EXEC DEL batch.
func (s *Store) DeleteAllRefreshForSubject(ctx context.Context, subjectID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tokens, err := s.redis.SMembers(ctx, s.indexKey(subjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.refreshKey(token))
	}
	keys = append(keys, s.indexKey(subjectID))

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// LiveRefreshCount returns the number of indexed refresh tokens for a subject.
func (s *Store) LiveRefreshCount(ctx context.Context, subjectID string) (int, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	count, err := s.redis.SCard(ctx, s.indexKey(subjectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(count), nil
}

// SaveCSRF stores the subject's current CSRF token, overwriting (and thereby
// invalidating) any prior value.
func (s *Store) SaveCSRF(ctx context.Context, subjectID, token string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.redis.Set(ctx, s.csrfKey(subjectID), token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetCSRF returns the subject's live CSRF token, or [ErrNotFound].
func (s *Store) GetCSRF(ctx context.Context, subjectID string) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	token, err := s.redis.Get(ctx, s.csrfKey(subjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return token, nil
}

// DeleteCSRF removes the subject's CSRF binding. Absence is not an error.
func (s *Store) DeleteCSRF(ctx context.Context, subjectID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.redis.Del(ctx, s.csrfKey(subjectID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
