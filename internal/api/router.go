package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/push"
	"github.com/paulexconde/together/internal/realtime"
	"github.com/paulexconde/together/internal/services"
)

type Deps struct {
	Pair      services.Pair
	JWTSecret []byte
	Checkins  services.CheckinService
	Analytics services.AnalyticsService
	Questions services.QuestionBank
	Push      push.Service
	Hub       *realtime.Hub
}

func Wire(deps Deps) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
	)

	root.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{"ok": true})
	})

	root.Mount("/api", apiRouter(deps))

	return root
}

func apiRouter(deps Deps) http.Handler {
	api := chi.NewRouter()
	api.Use(Authenticate(deps.JWTSecret, deps.Pair))

	api.Route("/checkin", func(r chi.Router) {
		r.Get("/today", GetToday(deps.Checkins))
		r.Post("/submit", SubmitCheckin(deps.Checkins))
		r.Get("/history", GetHistory(deps.Checkins))
		r.Get("/stats", GetStats(deps.Analytics))
		r.Get("/config", GetConfig(deps.Checkins))
		r.Put("/config", UpdateConfig(deps.Checkins))
	})

	api.Get("/questions", ListQuestions(deps.Questions))
	api.Post("/questions", CreateQuestion(deps.Questions))

	if deps.Push != nil {
		api.Post("/notifications/subscribe", Subscribe(deps.Push))
		api.Delete("/notifications/subscribe", Unsubscribe(deps.Push))
	}
	if deps.Hub != nil {
		api.Get("/events", Events(deps.Hub, 25*time.Second))
	}

	return api
}
