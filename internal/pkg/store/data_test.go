package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/together/internal/database"
	"github.com/paulexconde/together/internal/models"
	"github.com/paulexconde/together/pkg/fault"
	"github.com/paulexconde/together/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "store.sqlite") + "?_foreign_keys=on"
	db, err := database.Open(database.SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStructFieldHelpers(t *testing.T) {
	assert.Equal(t, []string{"id", "text", "kind", "options"}, getStructFieldNamesFromInstance(&models.Question{}))

	columns, placeholders := getStructFieldsFromDTO(models.QuestionDTO{})
	assert.Equal(t, "text, kind, options", columns)
	assert.Equal(t, ":text, :kind, :options", placeholders)

	hour := 0
	params := map[string]any{}
	set := getNonEmptyFieldsFromDTO(models.CheckinConfigDTO{NotificationHour: &hour}, params)
	assert.Equal(t, "notification_hour = :notification_hour", set)
	assert.Equal(t, 0, params["notification_hour"])

	params = map[string]any{}
	assert.Empty(t, getNonEmptyFieldsFromDTO(models.CheckinConfigDTO{}, params))
	assert.Empty(t, params)
}

func TestDataStore_CreateGetUpdate(t *testing.T) {
	db := openTestDB(t)
	ds := NewDataStore[models.CheckinConfig](db, "checkin_config")
	ctx := context.Background()

	hour := 20
	created, err := ds.Create(ctx, models.CheckinConfigDTO{NotificationHour: &hour})
	require.NoError(t, err)
	cfg := created.(*models.CheckinConfig)
	assert.NotZero(t, cfg.ID)

	got, err := ds.Get(ctx, "SELECT id, notification_hour FROM checkin_config WHERE id = ?", cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.NotificationHour)

	zero := 0
	updated, err := ds.Update(ctx, cfg.ID, models.CheckinConfigDTO{NotificationHour: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.(*models.CheckinConfig).NotificationHour)

	_, err = ds.Update(ctx, cfg.ID+100, models.CheckinConfigDTO{NotificationHour: &zero})
	assert.ErrorIs(t, err, fault.ErrNotFound)

	_, err = ds.Update(ctx, cfg.ID, models.CheckinConfigDTO{})
	assert.Error(t, err)

	_, err = ds.Get(ctx, "SELECT id, notification_hour FROM checkin_config WHERE id = ?", -1)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestDataStore_TranslatesConstraintErrors(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	configs := NewDataStore[models.CheckinConfig](db, "checkin_config")
	hour := 8
	_, err := configs.Create(ctx, models.CheckinConfigDTO{NotificationHour: &hour})
	require.NoError(t, err)

	// a second row breaks the singleton constraint
	_, err = configs.Create(ctx, models.CheckinConfigDTO{NotificationHour: &hour})
	assert.ErrorIs(t, err, fault.ErrUniqueViolation)

	checkins := NewDataStore[models.Checkin](db, "daily_checkins")
	_, err = checkins.Create(ctx, models.CheckinDTO{
		ParticipantID: "alice",
		Date:          "2026-10-18",
		Mood:          3,
		QuestionID:    999,
		Answer:        "orphan",
	})
	assert.ErrorIs(t, err, fault.ErrForeignKeyViolation)
}

func TestDataStore_Hooks(t *testing.T) {
	db := openTestDB(t)
	ds := NewDataStore[models.Question](db, "daily_questions")
	ctx := context.Background()

	var order []string
	ds.SetHooks(store.Hooks{
		PreSave: []func(ctx context.Context, tx *sqlx.Tx, data store.DTO, isNew bool) error{
			func(context.Context, *sqlx.Tx, store.DTO, bool) error {
				order = append(order, "pre")
				return nil
			},
		},
		PostSave: []func(ctx context.Context, tx *sqlx.Tx, data store.DTO, model any, isNew bool) error{
			func(_ context.Context, tx *sqlx.Tx, _ store.DTO, model any, _ bool) error {
				var n int
				if err := tx.Get(&n, "SELECT COUNT(*) FROM daily_questions"); err != nil {
					return err
				}
				order = append(order, "post")
				if model.(*models.Question).Text == "reject" {
					return errors.New("rejected")
				}
				return nil
			},
		},
		AfterSaveCommit: []func(ctx context.Context, data store.DTO, model any, isNew bool) store.AfterSaveCommitHook{
			func(_ context.Context, _ store.DTO, _ any, isNew bool) store.AfterSaveCommitHook {
				return func() {
					if isNew {
						order = append(order, "committed")
					}
				}
			},
		},
	})

	_, err := ds.Create(ctx, models.QuestionDTO{Text: "kept", Kind: models.FreeText})
	require.NoError(t, err)
	assert.Equal(t, []string{"pre", "post", "committed"}, order)

	order = nil
	_, err = ds.Create(ctx, models.QuestionDTO{Text: "reject", Kind: models.FreeText})
	assert.EqualError(t, err, "rejected")
	assert.Equal(t, []string{"pre", "post"}, order)

	// the failed insert was rolled back
	rows, err := ds.Select(ctx, "SELECT id, text, kind, options FROM daily_questions")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "kept", rows[0].Text)
}

func TestDataStore_DeleteWhere(t *testing.T) {
	db := openTestDB(t)
	ds := NewDataStore[models.Question](db, "daily_questions")
	ctx := context.Background()

	_, err := ds.Create(ctx, models.QuestionDTO{Text: "bye", Kind: models.FreeText})
	require.NoError(t, err)

	require.NoError(t, ds.DeleteWhere(ctx, "text", "bye"))

	n, err := ds.QueryRow(ctx, "SELECT COUNT(*) FROM daily_questions")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestTranslateError_PassesThrough(t *testing.T) {
	other := errors.New("disk full")
	assert.Same(t, other, translateError(other))
}
