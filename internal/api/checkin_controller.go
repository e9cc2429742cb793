package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/paulexconde/together/internal/services"
)

type SubmitRequest struct {
	Mood   int    `json:"mood"`
	Answer string `json:"answer"`
}

type ConfigRequest struct {
	NotificationHour *int `json:"notificationHour"`
}

type HistoryResponse struct {
	Entries []services.HistoryEntry `json:"entries"`
}

func GetToday(checkins services.CheckinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := checkins.Status(r.Context(), ParticipantFrom(r.Context()))
		if err != nil {
			writeError(w, r, "checkin.today", err)
			return
		}
		render.JSON(w, r, status)
	}
}

func SubmitCheckin(checkins services.CheckinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := SubmitRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badRequest(w, r, "checkin.submit.parse_body", "invalid request body")
			return
		}

		status, err := checkins.Submit(r.Context(), ParticipantFrom(r.Context()), req.Mood, req.Answer)
		if err != nil {
			writeError(w, r, "checkin.submit", err)
			return
		}
		respond(w, r, http.StatusCreated, status)
	}
}

func GetHistory(checkins services.CheckinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := checkins.History(r.Context(), ParticipantFrom(r.Context()), daysParam(r))
		if err != nil {
			writeError(w, r, "checkin.history", err)
			return
		}
		render.JSON(w, r, HistoryResponse{Entries: entries})
	}
}

func GetStats(analytics services.AnalyticsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := analytics.Stats(r.Context(), ParticipantFrom(r.Context()), daysParam(r))
		if err != nil {
			writeError(w, r, "checkin.stats", err)
			return
		}
		render.JSON(w, r, stats)
	}
}

func GetConfig(checkins services.CheckinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := checkins.Config(r.Context())
		if err != nil {
			writeError(w, r, "checkin.config.get", err)
			return
		}
		render.JSON(w, r, cfg)
	}
}

func UpdateConfig(checkins services.CheckinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := ConfigRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badRequest(w, r, "checkin.config.parse_body", "invalid request body")
			return
		}
		if req.NotificationHour == nil {
			respond(w, r, http.StatusBadRequest, ErrorResponse{Message: "notificationHour is required", Field: "notificationHour", Code: "VALIDATION_ERROR"})
			return
		}

		cfg, err := checkins.SetNotificationHour(r.Context(), *req.NotificationHour)
		if err != nil {
			writeError(w, r, "checkin.config.update", err)
			return
		}
		render.JSON(w, r, cfg)
	}
}

// daysParam reads ?days=; anything unparsable falls back to the default window.
func daysParam(r *http.Request) int {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		return services.DefaultWindowDays
	}
	return services.ClampWindow(days)
}
