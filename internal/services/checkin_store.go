package services

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/together/internal/models"
	datastore "github.com/paulexconde/together/internal/pkg/store"
	"github.com/paulexconde/together/pkg/fault"
	"github.com/paulexconde/together/pkg/store"
)

// Persists check-ins. Records are never updated or deleted.
type CheckinStore interface {
	// Find returns nil without error when the participant has no check-in that day.
	Find(ctx context.Context, participant, date string) (*models.Checkin, error)
	// Create fails with fault.ErrAlreadyCheckedIn when a record for the day exists.
	// The uniqueness check is the database constraint, so concurrent duplicates
	// resolve to exactly one row.
	Create(ctx context.Context, participant, date string, mood, questionID int, answer string) (*models.Checkin, error)
	AllForDate(ctx context.Context, date string) ([]models.Checkin, error)
	// Between returns check-ins with from <= date <= to, newest day first.
	Between(ctx context.Context, from, to string) ([]models.CheckinWithQuestion, error)
	ParticipantsMissingCheckin(ctx context.Context, date string) ([]Participant, error)
	// AfterCommit registers fn to run once a new check-in has been committed.
	AfterCommit(fn func(models.Checkin))
}

type checkinStoreImpl struct {
	checkins store.Datastorer[models.Checkin]
	pair     Pair
	now      func() time.Time
}

func NewCheckinStore(db *sqlx.DB, pair Pair, now func() time.Time) CheckinStore {
	if now == nil {
		now = time.Now
	}
	return &checkinStoreImpl{
		checkins: datastore.NewDataStore[models.Checkin](db, "daily_checkins"),
		pair:     pair,
		now:      now,
	}
}

const checkinColumns = "id, participant_id, checkin_date, mood, question_id, answer, created_at"

func (s *checkinStoreImpl) Find(ctx context.Context, participant, date string) (*models.Checkin, error) {
	c, err := s.checkins.Get(ctx,
		"SELECT "+checkinColumns+" FROM daily_checkins WHERE participant_id = ? AND checkin_date = ?",
		participant, date)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *checkinStoreImpl) Create(ctx context.Context, participant, date string, mood, questionID int, answer string) (*models.Checkin, error) {
	created, err := s.checkins.Create(ctx, models.CheckinDTO{
		ParticipantID: participant,
		Date:          date,
		Mood:          mood,
		QuestionID:    questionID,
		Answer:        answer,
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, fault.ErrUniqueViolation) {
			return nil, fault.ErrAlreadyCheckedIn
		}
		return nil, err
	}
	return created.(*models.Checkin), nil
}

func (s *checkinStoreImpl) AllForDate(ctx context.Context, date string) ([]models.Checkin, error) {
	return s.checkins.Select(ctx,
		"SELECT "+checkinColumns+" FROM daily_checkins WHERE checkin_date = ? ORDER BY id ASC",
		date)
}

func (s *checkinStoreImpl) Between(ctx context.Context, from, to string) ([]models.CheckinWithQuestion, error) {
	rows := []models.CheckinWithQuestion{}
	db := s.checkins.Base()
	query := db.Rebind(`
		SELECT c.id, c.participant_id, c.checkin_date, c.mood, c.question_id, c.answer, c.created_at,
			q.text AS question_text, q.kind AS question_kind
		FROM daily_checkins c
		JOIN daily_questions q ON q.id = c.question_id
		WHERE c.checkin_date >= ? AND c.checkin_date <= ?
		ORDER BY c.checkin_date DESC, c.id ASC`)

	if err := db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *checkinStoreImpl) ParticipantsMissingCheckin(ctx context.Context, date string) ([]Participant, error) {
	existing, err := s.AllForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(existing))
	for _, c := range existing {
		done[c.ParticipantID] = true
	}

	missing := []Participant{}
	for _, p := range s.pair.Members() {
		if !done[p.ID] {
			missing = append(missing, p)
		}
	}
	return missing, nil
}

func (s *checkinStoreImpl) AfterCommit(fn func(models.Checkin)) {
	s.checkins.SetHooks(store.Hooks{
		AfterSaveCommit: []func(ctx context.Context, data store.DTO, model any, isNew bool) store.AfterSaveCommitHook{
			func(_ context.Context, _ store.DTO, model any, isNew bool) store.AfterSaveCommitHook {
				c, ok := model.(*models.Checkin)
				if !ok || !isNew {
					return nil
				}
				checkin := *c
				return func() { fn(checkin) }
			},
		},
	})
}
