package locks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only when the stored token still
// matches, so a lock that expired and was re-acquired by another
// instance is never deleted out from under it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Manager serializes mutations per game. Within one process a keyed
// mutex is enough; when a redis client is supplied the lock is also
// held cross-process so several engine instances can share a database.
// Locking is an optimization to cut version conflicts, not a
// correctness requirement: the game row's version check is what
// actually prevents lost updates.
type Manager struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewManager(client *redis.Client, ttl time.Duration, log *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Manager{
		locks:  make(map[string]*sync.Mutex),
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (m *Manager) localFor(gameID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[gameID] = l
	}
	return l
}

// Acquire takes the per-game lock and returns a release func. With a
// redis client configured it spins briefly on SET NX; if the
// distributed lock cannot be taken before the context ends, the local
// lock is released and the error returned.
func (m *Manager) Acquire(ctx context.Context, gameID string) (func(), error) {
	local := m.localFor(gameID)
	local.Lock()

	if m.client == nil {
		return local.Unlock, nil
	}

	key := "lock:game:" + gameID
	token := uuid.NewString()
	for {
		ok, err := m.client.SetNX(ctx, key, token, m.ttl).Result()
		if err != nil {
			local.Unlock()
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			local.Unlock()
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	release := func() {
		res, err := releaseScript.Run(context.Background(), m.client, []string{key}, token).Result()
		if err != nil {
			m.log.Warn("release game lock failed", zap.String("game_id", gameID), zap.Error(err))
		} else if res == int64(0) {
			m.log.Warn("game lock expired before release", zap.String("game_id", gameID))
		}
		local.Unlock()
	}
	return release, nil
}
