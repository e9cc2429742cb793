package cli

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/together/internal/config"
	"github.com/paulexconde/together/internal/database"
	"github.com/paulexconde/together/internal/notify"
	"github.com/paulexconde/together/internal/pkg/workerpool"
	"github.com/paulexconde/together/internal/push"
	"github.com/paulexconde/together/internal/realtime"
	"github.com/paulexconde/together/internal/services"
)

// App is the wired set of services shared by the commands.
type App struct {
	DB        *sqlx.DB
	Pair      services.Pair
	Calendar  services.Calendar
	Questions services.QuestionBank
	Checkins  services.CheckinService
	Analytics services.AnalyticsService
	Reminders services.ReminderService
	Push      push.Service
	Hub       *realtime.Hub
	Pool      *workerpool.WorkerPool
}

// newApp opens the database and wires every service. The worker pool
// lives until ctx is done or Close is called.
func newApp(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pair, err := cfg.Pair()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	vapid := push.VAPIDConfig{
		PublicKey:  cfg.Push.VAPIDPublicKey,
		PrivateKey: cfg.Push.VAPIDPrivateKey,
		Subject:    cfg.Push.Subject,
	}
	var sender push.Sender
	if vapid.Enabled() {
		sender = push.NewWebPushSender(vapid, nil)
	}

	app := &App{
		DB:       db,
		Pair:     pair,
		Calendar: services.NewCalendar(time.Now, loc),
		Push:     push.NewService(db, sender),
		Hub:      realtime.NewHub(16),
		Pool:     workerpool.NewWorkerPool(ctx, cfg.Workers, cfg.QueueSize),
	}

	dispatcher := notify.NewDispatcher(app.Pool, app.Hub, app.Push, notify.Options{})

	checkinStore := services.NewCheckinStore(db, pair, time.Now)
	app.Questions = services.NewQuestionBank(db)
	app.Checkins = services.NewCheckinService(pair, app.Calendar, app.Questions, checkinStore, services.NewConfigStore(db), dispatcher)
	app.Analytics = services.NewAnalyticsService(pair, app.Calendar, checkinStore)
	app.Reminders = services.NewReminderService(app.Calendar, app.Checkins, app.Push)

	return app, nil
}

func (a *App) Close(ctx context.Context) {
	a.Pool.Shutdown(ctx)
	a.DB.Close()
}
