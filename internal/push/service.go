package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/models"
	datastore "github.com/paulexconde/together/internal/pkg/store"
	"github.com/paulexconde/together/pkg/fault"
	"github.com/paulexconde/together/pkg/store"
)

type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Stores browser push subscriptions and fans messages out to them.
type Service interface {
	Subscribe(ctx context.Context, participant, endpoint, p256dh, auth string) error
	Unsubscribe(ctx context.Context, endpoint string) error
	SendToParticipants(ctx context.Context, participants []string, msg Message) error
	SendToAllExcept(ctx context.Context, participant string, msg Message) error
}

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 2 * time.Second
)

type serviceImpl struct {
	subs       store.Datastorer[models.PushSubscription]
	sender     Sender
	now        func() time.Time
	attempts   int
	retryDelay time.Duration
}

type Option func(*serviceImpl)

// WithRetries sets how many times one subscription is tried before giving up.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(s *serviceImpl) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if delay >= 0 {
			s.retryDelay = delay
		}
	}
}

// NewService wires the subscription table to sender. A nil sender disables delivery.
func NewService(db *sqlx.DB, sender Sender, opts ...Option) Service {
	if sender == nil {
		sender = nopSender{}
	}
	s := &serviceImpl{
		subs:       datastore.NewDataStore[models.PushSubscription](db, "push_subscriptions"),
		sender:     sender,
		now:        time.Now,
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const subscriptionColumns = "id, participant_id, endpoint, p256dh, auth, created_at"

func (s *serviceImpl) Subscribe(ctx context.Context, participant, endpoint, p256dh, auth string) error {
	switch {
	case strings.TrimSpace(endpoint) == "":
		return fault.NewFieldError("endpoint", "endpoint is required")
	case p256dh == "":
		return fault.NewFieldError("keys.p256dh", "p256dh key is required")
	case auth == "":
		return fault.NewFieldError("keys.auth", "auth key is required")
	}

	_, err := s.subs.Create(ctx, models.PushSubscriptionDTO{
		ParticipantID: participant,
		Endpoint:      endpoint,
		P256dh:        p256dh,
		Auth:          auth,
		CreatedAt:     s.now().UTC(),
	})
	if err == nil {
		log.WithFields(log.Fields{"participant": participant}).Info("Push subscription saved")
		return nil
	}
	if !errors.Is(err, fault.ErrUniqueViolation) {
		return fault.NewInternalError("save push subscription", err)
	}

	existing, err := s.subs.Get(ctx, "SELECT "+subscriptionColumns+" FROM push_subscriptions WHERE endpoint = ?", endpoint)
	if err != nil {
		return fault.NewInternalError("load push subscription", err)
	}
	if _, err := s.subs.Update(ctx, existing.ID, models.PushKeysDTO{ParticipantID: participant, P256dh: p256dh, Auth: auth}); err != nil {
		return fault.NewInternalError("refresh push subscription", err)
	}
	return nil
}

func (s *serviceImpl) Unsubscribe(ctx context.Context, endpoint string) error {
	if err := s.subs.DeleteWhere(ctx, "endpoint", endpoint); err != nil {
		return fault.NewInternalError("delete push subscription", err)
	}
	log.Infof("Push subscription removed: %s", endpoint)
	return nil
}

func (s *serviceImpl) SendToParticipants(ctx context.Context, participants []string, msg Message) error {
	if len(participants) == 0 {
		return nil
	}

	query, args, err := sqlx.In("SELECT "+subscriptionColumns+" FROM push_subscriptions WHERE participant_id IN (?) ORDER BY id", participants)
	if err != nil {
		return err
	}
	subs, err := s.subs.Select(ctx, query, args...)
	if err != nil {
		return fault.NewInternalError("load push subscriptions", err)
	}
	return s.deliver(ctx, subs, msg)
}

func (s *serviceImpl) SendToAllExcept(ctx context.Context, participant string, msg Message) error {
	subs, err := s.subs.Select(ctx, "SELECT "+subscriptionColumns+" FROM push_subscriptions WHERE participant_id <> ? ORDER BY id", participant)
	if err != nil {
		return fault.NewInternalError("load push subscriptions", err)
	}
	return s.deliver(ctx, subs, msg)
}

// deliver sends msg to every subscription. Each subscription is retried on
// its own, so a broken device never causes a repeat on a working one.
// Subscriptions the push service reports as gone are removed; other failures
// are collected and returned together.
func (s *serviceImpl) deliver(ctx context.Context, subs []models.PushSubscription, msg Message) error {
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	var errs []error
	for _, sub := range subs {
		status, err := s.sendWithRetry(ctx, sub, payload)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("push to %s: %w", sub.Endpoint, err))
		case isExpired(status):
			if derr := s.subs.DeleteWhere(ctx, "endpoint", sub.Endpoint); derr != nil {
				errs = append(errs, derr)
				continue
			}
			log.Infof("Removed expired push subscription: %s", sub.Endpoint)
		case status >= 300:
			errs = append(errs, fmt.Errorf("push to %s: unexpected status %d", sub.Endpoint, status))
		}
	}

	log.Debugf("Push notifications sent to %d subscribers", len(subs))
	return errors.Join(errs...)
}

// sendWithRetry retries transport errors, 429 and 5xx answers. Any other
// status is final and returned as is.
func (s *serviceImpl) sendWithRetry(ctx context.Context, sub models.PushSubscription, payload []byte) (status int, err error) {
	for i := range s.attempts {
		status, err = s.sender.Send(ctx, sub, payload)
		if err == nil && !isTransient(status) {
			return status, nil
		}
		log.Warnf("Push to %s failed (attempt %d/%d): status %d, %v", sub.Endpoint, i+1, s.attempts, status, err)

		if i == s.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return status, err
}

func isTransient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func isExpired(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusGone
}
