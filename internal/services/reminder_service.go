package services

import (
	"context"

	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/push"
)

var eveningReminder = push.Message{
	Title: "Evening Check-in",
	Body:  "How was your day? Share your mood and answer today's question!",
	URL:   "/checkin",
}

type ParticipantPusher interface {
	SendToParticipants(ctx context.Context, participants []string, msg push.Message) error
}

// Nudges participants who have not checked in by the configured hour.
type ReminderService interface {
	// Remind sends the reminder when the current hour matches the configured
	// notification hour. It returns how many participants were reminded.
	Remind(ctx context.Context) (int, error)
}

type reminderServiceImpl struct {
	calendar Calendar
	checkins CheckinService
	pusher   ParticipantPusher
}

func NewReminderService(calendar Calendar, checkins CheckinService, pusher ParticipantPusher) ReminderService {
	return &reminderServiceImpl{calendar: calendar, checkins: checkins, pusher: pusher}
}

func (r *reminderServiceImpl) Remind(ctx context.Context) (int, error) {
	cfg, err := r.checkins.Config(ctx)
	if err != nil {
		return 0, err
	}
	if r.calendar.Hour() != cfg.NotificationHour {
		return 0, nil
	}

	missing, err := r.checkins.MissingToday(ctx)
	if err != nil {
		return 0, err
	}
	if len(missing) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(missing))
	for _, p := range missing {
		ids = append(ids, p.ID)
	}
	if err := r.pusher.SendToParticipants(ctx, ids, eveningReminder); err != nil {
		return 0, err
	}

	log.Infof("Check-in reminder sent to %d participants", len(ids))
	return len(ids), nil
}
