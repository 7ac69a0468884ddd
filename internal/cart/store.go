package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
	redisclient "github.com/arjunnair/tiffinbox-backend/pkg/redis"
	"github.com/google/uuid"
)

// Store persists cart snapshots keyed by owner. A snapshot is the full ordered
// line list; every mutating operation rewrites it.
type Store interface {
	Load(ctx context.Context, ownerID uuid.UUID) ([]Line, error)
	Save(ctx context.Context, ownerID uuid.UUID, lines []Line) error
}

type cartKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type cartKeyer interface {
	CartKey(ownerID string) string
}

// RedisStore keeps cart snapshots in Redis as JSON blobs.
type RedisStore struct {
	kv    cartKV
	keyer cartKeyer
	ttl   time.Duration
}

// NewRedisStore builds the Redis-backed cart store. A zero TTL keeps
// snapshots until explicitly overwritten.
func NewRedisStore(client *redisclient.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{kv: client, keyer: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, ownerID uuid.UUID) ([]Line, error) {
	raw, err := s.kv.Get(ctx, s.keyer.CartKey(ownerID.String()))
	if err != nil {
		if redisclient.IsNil(err) {
			return []Line{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart snapshot")
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding cart snapshot")
	}
	return lines, nil
}

func (s *RedisStore) Save(ctx context.Context, ownerID uuid.UUID, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding cart snapshot")
	}
	if err := s.kv.Set(ctx, s.keyer.CartKey(ownerID.String()), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart snapshot")
	}
	return nil
}
