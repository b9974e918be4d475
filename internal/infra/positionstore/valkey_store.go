package positionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/gaptime-companion/internal/domain/location"
)

// ValkeyStore shares the last fix between companion instances.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "companion"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Load(ctx context.Context) (location.Position, bool, error) {
	cmd := s.client.B().Get().Key(s.positionKey()).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return location.Position{}, false, nil
		}
		return location.Position{}, false, err
	}
	var pos location.Position
	if err := json.Unmarshal([]byte(payload), &pos); err != nil {
		return location.Position{}, false, err
	}
	return pos, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, pos location.Position, ttl time.Duration) error {
	payload, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.positionKey()).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) positionKey() string {
	return fmt.Sprintf("%s:position", s.prefix)
}

var _ location.Store = (*ValkeyStore)(nil)
