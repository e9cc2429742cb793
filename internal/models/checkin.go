package models

import (
	"database/sql"
	"time"
)

type QuestionKind string

const (
	FreeText QuestionKind = "free_text"
	Options  QuestionKind = "options"
)

type Question struct {
	ID      int            `db:"id" json:"id"`
	Text    string         `db:"text" json:"text"`
	Kind    QuestionKind   `db:"kind" json:"type"`
	Options sql.NullString `db:"options" json:"-"` // JSON encoded list, set only for Options
}

type QuestionDTO struct {
	Text    string         `db:"text"`
	Kind    QuestionKind   `db:"kind"`
	Options sql.NullString `db:"options"`
}

func (d QuestionDTO) ToModel(id int) any {
	return &Question{ID: id, Text: d.Text, Kind: d.Kind, Options: d.Options}
}

// Checkin is immutable once written; there is one per participant per day.
type Checkin struct {
	ID            int       `db:"id" json:"id"`
	ParticipantID string    `db:"participant_id" json:"participant_id"`
	Date          string    `db:"checkin_date" json:"date"`
	Mood          int       `db:"mood" json:"mood"`
	QuestionID    int       `db:"question_id" json:"question_id"`
	Answer        string    `db:"answer" json:"answer"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type CheckinDTO struct {
	ParticipantID string    `db:"participant_id"`
	Date          string    `db:"checkin_date"`
	Mood          int       `db:"mood"`
	QuestionID    int       `db:"question_id"`
	Answer        string    `db:"answer"`
	CreatedAt     time.Time `db:"created_at"`
}

func (d CheckinDTO) ToModel(id int) any {
	return &Checkin{
		ID:            id,
		ParticipantID: d.ParticipantID,
		Date:          d.Date,
		Mood:          d.Mood,
		QuestionID:    d.QuestionID,
		Answer:        d.Answer,
		CreatedAt:     d.CreatedAt,
	}
}

// CheckinWithQuestion is a history row joined with its question.
type CheckinWithQuestion struct {
	Checkin
	QuestionText string       `db:"question_text"`
	QuestionKind QuestionKind `db:"question_kind"`
}

type CheckinConfig struct {
	ID               int `db:"id" json:"-"`
	NotificationHour int `db:"notification_hour" json:"notificationHour"`
}

type CheckinConfigDTO struct {
	NotificationHour *int `db:"notification_hour"`
}

func (d CheckinConfigDTO) ToModel(id int) any {
	cfg := &CheckinConfig{ID: id}
	if d.NotificationHour != nil {
		cfg.NotificationHour = *d.NotificationHour
	}
	return cfg
}

type PushSubscription struct {
	ID            int       `db:"id" json:"id"`
	ParticipantID string    `db:"participant_id" json:"participant_id"`
	Endpoint      string    `db:"endpoint" json:"endpoint"`
	P256dh        string    `db:"p256dh" json:"p256dh"`
	Auth          string    `db:"auth" json:"auth"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type PushSubscriptionDTO struct {
	ParticipantID string    `db:"participant_id"`
	Endpoint      string    `db:"endpoint"`
	P256dh        string    `db:"p256dh"`
	Auth          string    `db:"auth"`
	CreatedAt     time.Time `db:"created_at"`
}

func (d PushSubscriptionDTO) ToModel(id int) any {
	return &PushSubscription{
		ID:            id,
		ParticipantID: d.ParticipantID,
		Endpoint:      d.Endpoint,
		P256dh:        d.P256dh,
		Auth:          d.Auth,
		CreatedAt:     d.CreatedAt,
	}
}

// PushKeysDTO refreshes the keys of an endpoint that subscribes again.
type PushKeysDTO struct {
	ParticipantID string `db:"participant_id"`
	P256dh        string `db:"p256dh"`
	Auth          string `db:"auth"`
}

func (d PushKeysDTO) ToModel(id int) any {
	return &PushSubscription{ID: id, ParticipantID: d.ParticipantID, P256dh: d.P256dh, Auth: d.Auth}
}
