package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/models"
	"github.com/paulexconde/together/pkg/fault"
)

const (
	MinMood         = 1
	MaxMood         = 5
	MaxAnswerLength = 500

	DefaultWindowDays = 30
	MaxWindowDays     = 365
)

type CheckinAnswer struct {
	Mood   int    `json:"mood"`
	Answer string `json:"answer"`
}

// TodayStatus is what a participant sees for the current day.
// PartnerCheckin stays nil until both have submitted.
type TodayStatus struct {
	Date             string         `json:"date"`
	Question         QuestionView   `json:"question"`
	MyCheckin        *CheckinAnswer `json:"myCheckin"`
	PartnerCheckin   *CheckinAnswer `json:"partnerCheckin"`
	PartnerCompleted bool           `json:"partnerCompleted"`
	BothCompleted    bool           `json:"bothCompleted"`
}

type HistoryCheckin struct {
	ParticipantID string `json:"userId"`
	DisplayName   string `json:"displayName"`
	Mood          int    `json:"mood"`
	Answer        string `json:"answer"`
}

type HistoryQuestion struct {
	Text string              `json:"text"`
	Type models.QuestionKind `json:"type"`
}

type HistoryEntry struct {
	Date     string           `json:"date"`
	Question HistoryQuestion  `json:"question"`
	Checkins []HistoryCheckin `json:"checkins"`
}

// SubmissionNotifier is told about every committed check-in. Implementations
// must not block; the submit path does not wait on them.
type SubmissionNotifier interface {
	CheckinSubmitted(participant, date string)
}

// Drives the daily status and submission flow for the pair.
type CheckinService interface {
	Status(ctx context.Context, requester string) (*TodayStatus, error)
	Submit(ctx context.Context, participant string, mood int, answer string) (*TodayStatus, error)
	History(ctx context.Context, requester string, days int) ([]HistoryEntry, error)
	Config(ctx context.Context) (*models.CheckinConfig, error)
	SetNotificationHour(ctx context.Context, hour int) (*models.CheckinConfig, error)
	MissingToday(ctx context.Context) ([]Participant, error)
}

type checkinServiceImpl struct {
	pair      Pair
	calendar  Calendar
	questions QuestionBank
	checkins  CheckinStore
	config    ConfigStore
}

// Instantiate the CheckinService. The notifier, if any, is hooked to run
// after each new check-in commits.
func NewCheckinService(pair Pair, calendar Calendar, questions QuestionBank, checkins CheckinStore, config ConfigStore, notifier SubmissionNotifier) CheckinService {
	if notifier != nil {
		checkins.AfterCommit(func(c models.Checkin) {
			notifier.CheckinSubmitted(c.ParticipantID, c.Date)
		})
	}

	return &checkinServiceImpl{
		pair:      pair,
		calendar:  calendar,
		questions: questions,
		checkins:  checkins,
		config:    config,
	}
}

// ClampWindow applies the default and upper bound to a requested day window.
func ClampWindow(days int) int {
	if days < 1 {
		return DefaultWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

func ValidateSubmission(mood int, answer string) error {
	if mood < MinMood || mood > MaxMood {
		return fault.NewFieldError("mood", fmt.Sprintf("mood must be between %d and %d", MinMood, MaxMood))
	}
	if answer == "" {
		return fault.NewFieldError("answer", "answer is required")
	}
	if utf8.RuneCountInString(answer) > MaxAnswerLength {
		return fault.NewFieldError("answer", fmt.Sprintf("answer must be at most %d characters", MaxAnswerLength))
	}
	return nil
}

func (s *checkinServiceImpl) Status(ctx context.Context, requester string) (*TodayStatus, error) {
	if !s.pair.Has(requester) {
		return nil, fault.ErrUnknownParticipant
	}

	today := s.calendar.Today()
	date := FormatDay(today)

	question, err := s.questions.QuestionForDate(ctx, today)
	if err != nil {
		return nil, err
	}

	all, err := s.checkins.AllForDate(ctx, date)
	if err != nil {
		return nil, fault.NewInternalError("load today's check-ins", err)
	}

	var mine, theirs *models.Checkin
	for i := range all {
		if all[i].ParticipantID == requester {
			mine = &all[i]
		} else if theirs == nil {
			theirs = &all[i]
		}
	}

	status := &TodayStatus{
		Date:             date,
		Question:         *question,
		PartnerCompleted: theirs != nil,
		BothCompleted:    mine != nil && theirs != nil,
	}
	if mine != nil {
		status.MyCheckin = &CheckinAnswer{Mood: mine.Mood, Answer: mine.Answer}
	}
	if status.BothCompleted {
		status.PartnerCheckin = &CheckinAnswer{Mood: theirs.Mood, Answer: theirs.Answer}
	}

	return status, nil
}

func (s *checkinServiceImpl) Submit(ctx context.Context, participant string, mood int, answer string) (*TodayStatus, error) {
	if err := ValidateSubmission(mood, answer); err != nil {
		return nil, err
	}
	if !s.pair.Has(participant) {
		return nil, fault.ErrUnknownParticipant
	}

	today := s.calendar.Today()
	date := FormatDay(today)

	question, err := s.questions.QuestionForDate(ctx, today)
	if err != nil {
		return nil, err
	}

	if _, err := s.checkins.Create(ctx, participant, date, mood, question.ID, answer); err != nil {
		if fault.IsClientError(err) {
			return nil, err
		}
		return nil, fault.NewInternalError("save check-in", err)
	}

	log.WithFields(log.Fields{"participant": participant, "date": date}).Info("Daily check-in submitted")

	return s.Status(ctx, participant)
}

func (s *checkinServiceImpl) History(ctx context.Context, requester string, days int) ([]HistoryEntry, error) {
	if !s.pair.Has(requester) {
		return nil, fault.ErrUnknownParticipant
	}

	window := s.calendar.LastDays(ClampWindow(days))
	from, to := FormatDay(window[0]), FormatDay(window[len(window)-1])

	rows, err := s.checkins.Between(ctx, from, to)
	if err != nil {
		return nil, fault.NewInternalError("load check-in history", err)
	}

	// today's partner answer stays hidden until the requester has answered too
	revealedToday := false
	for _, r := range rows {
		if r.Date == to && r.ParticipantID == requester {
			revealedToday = true
			break
		}
	}

	entries := []HistoryEntry{}
	for _, r := range rows {
		if r.Date == to && !revealedToday && r.ParticipantID != requester {
			continue
		}

		if n := len(entries); n == 0 || entries[n-1].Date != r.Date {
			entries = append(entries, HistoryEntry{
				Date:     r.Date,
				Question: HistoryQuestion{Text: r.QuestionText, Type: r.QuestionKind},
			})
		}
		last := &entries[len(entries)-1]
		last.Checkins = append(last.Checkins, HistoryCheckin{
			ParticipantID: r.ParticipantID,
			DisplayName:   s.pair.DisplayName(r.ParticipantID),
			Mood:          r.Mood,
			Answer:        r.Answer,
		})
	}

	return entries, nil
}

func (s *checkinServiceImpl) Config(ctx context.Context) (*models.CheckinConfig, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, fault.NewInternalError("load check-in config", err)
	}
	return cfg, nil
}

func (s *checkinServiceImpl) SetNotificationHour(ctx context.Context, hour int) (*models.CheckinConfig, error) {
	if err := ValidateNotificationHour(hour); err != nil {
		return nil, err
	}

	cfg, err := s.config.SetNotificationHour(ctx, hour)
	if err != nil {
		return nil, fault.NewInternalError("update check-in config", err)
	}
	return cfg, nil
}

func (s *checkinServiceImpl) MissingToday(ctx context.Context) ([]Participant, error) {
	missing, err := s.checkins.ParticipantsMissingCheckin(ctx, FormatDay(s.calendar.Today()))
	if err != nil {
		return nil, fault.NewInternalError("find missing check-ins", err)
	}
	return missing, nil
}
