package accessory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
	"github.com/mwhitfield/leapgate/internal/infrastructure/mqtt"
)

// Announcer publishes retained messages describing managed accessories.
// Satisfied by the MQTT client; nil disables announcements.
type Announcer interface {
	PublishRetained(topic string, payload []byte) error
}

// Registry is the persistence and announcement side of accessory
// management. The in-memory Index decides whether a device is new; the
// registry makes the decision durable and visible.
type Registry struct {
	repo      Repository
	announcer Announcer
	topics    mqtt.Topics
	logger    *logging.Logger
}

// NewRegistry returns a registry over repo. announcer may be nil.
func NewRegistry(repo Repository, announcer Announcer, logger *logging.Logger) *Registry {
	return &Registry{
		repo:      repo,
		announcer: announcer,
		logger:    logger,
	}
}

// Register persists a new accessory and announces it. Returns
// ErrAccessoryExists unchanged so callers can treat the race with a
// concurrent pass as a skip rather than a failure.
func (r *Registry) Register(ctx context.Context, acc Accessory) error {
	if err := r.repo.Insert(ctx, acc); err != nil {
		return err
	}
	r.announce(acc)
	return nil
}

// Restore returns the accessory set persisted by earlier runs and
// re-announces each entry.
func (r *Registry) Restore(ctx context.Context) ([]Accessory, error) {
	accs, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring accessories: %w", err)
	}
	for _, acc := range accs {
		r.announce(acc)
	}
	return accs, nil
}

// announce publishes the retained metadata message for an accessory.
// Announcement failures are logged, never fatal: the accessory is
// already durable.
func (r *Registry) announce(acc Accessory) {
	if r.announcer == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"uuid":        acc.UUID,
		"name":        acc.Name,
		"bridge_id":   acc.Context.BridgeID,
		"device_type": acc.Context.Device.DeviceType,
		"serial":      acc.Context.Device.SerialNumber.String(),
	})
	if err != nil {
		r.logger.Error("failed to marshal accessory announcement", "uuid", acc.UUID, "error", err)
		return
	}

	if err := r.announcer.PublishRetained(r.topics.AccessoryMeta(acc.UUID), payload); err != nil {
		r.logger.Warn("failed to announce accessory", "uuid", acc.UUID, "error", err)
	}
}
