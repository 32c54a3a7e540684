package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// ChangeEvent is the cache-invalidation pulse published after a committed
// mutation. It names the table and tenant, never row contents; subscribers
// re-fetch.
type ChangeEvent struct {
	Table      string `json:"table"`
	HospitalID string `json:"hospital_id"`
	Op         string `json:"op"`
	EntityID   string `json:"entity_id,omitempty"`
}

// ChangeChannel returns the pub/sub channel for a tenant's table.
func ChangeChannel(hospitalID, table string) string {
	return "changes:" + hospitalID + ":" + table
}
