package services

import (
	"context"

	"github.com/paulexconde/together/pkg/fault"
)

// Mood statistics over a trailing window, seen from one participant.
type AnalyticsService interface {
	Stats(ctx context.Context, requester string, days int) (*MoodStats, error)
}

type analyticsServiceImpl struct {
	pair     Pair
	calendar Calendar
	checkins CheckinStore
}

func NewAnalyticsService(pair Pair, calendar Calendar, checkins CheckinStore) AnalyticsService {
	return &analyticsServiceImpl{pair: pair, calendar: calendar, checkins: checkins}
}

func (s *analyticsServiceImpl) Stats(ctx context.Context, requester string, days int) (*MoodStats, error) {
	partner, ok := s.pair.Other(requester)
	if !ok {
		return nil, fault.ErrUnknownParticipant
	}

	window := s.calendar.LastDays(ClampWindow(days))
	from, to := FormatDay(window[0]), FormatDay(window[len(window)-1])

	rows, err := s.checkins.Between(ctx, from, to)
	if err != nil {
		return nil, fault.NewInternalError("load check-in history", err)
	}

	type pairMoods struct{ mine, theirs *int }
	byDate := make(map[string]pairMoods, len(window))
	for _, r := range rows {
		mood := r.Mood
		pm := byDate[r.Date]
		switch r.ParticipantID {
		case requester:
			pm.mine = &mood
		case partner.ID:
			pm.theirs = &mood
		}
		byDate[r.Date] = pm
	}

	// today's partner mood is withheld until the requester has checked in
	if pm, ok := byDate[to]; ok && pm.mine == nil {
		pm.theirs = nil
		byDate[to] = pm
	}

	daily := make([]DayMood, 0, len(window))
	for _, d := range window {
		date := FormatDay(d)
		pm := byDate[date]
		daily = append(daily, DayMood{Date: date, MyMood: pm.mine, PartnerMood: pm.theirs})
	}

	stats := ComputeMoodStats(daily)
	return &stats, nil
}
