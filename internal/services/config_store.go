package services

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/together/internal/models"
	datastore "github.com/paulexconde/together/internal/pkg/store"
	"github.com/paulexconde/together/pkg/fault"
	"github.com/paulexconde/together/pkg/store"
)

const DefaultNotificationHour = 20

// The single check-in configuration row.
type ConfigStore interface {
	// Get returns the configuration, creating it with defaults on first access.
	Get(ctx context.Context) (*models.CheckinConfig, error)
	SetNotificationHour(ctx context.Context, hour int) (*models.CheckinConfig, error)
}

type configStoreImpl struct {
	configs store.Datastorer[models.CheckinConfig]
}

func NewConfigStore(db *sqlx.DB) ConfigStore {
	return &configStoreImpl{
		configs: datastore.NewDataStore[models.CheckinConfig](db, "checkin_config"),
	}
}

func ValidateNotificationHour(hour int) error {
	if hour < 0 || hour > 23 {
		return fault.NewFieldError("notificationHour", "notificationHour must be between 0 and 23")
	}
	return nil
}

func (s *configStoreImpl) Get(ctx context.Context) (*models.CheckinConfig, error) {
	cfg, err := s.configs.Get(ctx, "SELECT id, notification_hour FROM checkin_config ORDER BY id ASC LIMIT 1")
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fault.ErrNotFound) {
		return nil, err
	}

	hour := DefaultNotificationHour
	created, err := s.configs.Create(ctx, models.CheckinConfigDTO{NotificationHour: &hour})
	if errors.Is(err, fault.ErrUniqueViolation) {
		// another request created the row first
		return s.configs.Get(ctx, "SELECT id, notification_hour FROM checkin_config ORDER BY id ASC LIMIT 1")
	}
	if err != nil {
		return nil, err
	}
	return created.(*models.CheckinConfig), nil
}

func (s *configStoreImpl) SetNotificationHour(ctx context.Context, hour int) (*models.CheckinConfig, error) {
	if err := ValidateNotificationHour(hour); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.configs.Update(ctx, current.ID, models.CheckinConfigDTO{NotificationHour: &hour})
	if err != nil {
		return nil, err
	}
	return updated.(*models.CheckinConfig), nil
}
