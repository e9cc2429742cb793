// Package notify runs the side effects of a submitted check-in off the request path.
package notify

import (
	"context"
	"time"

	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/pkg/workerpool"
	"github.com/paulexconde/together/internal/push"
)

const EventCheckinSubmitted = "checkin-submitted"

type CheckinSubmitted struct {
	Participant string `json:"userId"`
	Date        string `json:"date"`
}

var partnerCheckedIn = push.Message{
	Title: "Partner Checked In",
	Body:  "Your partner has completed their daily check-in! Complete yours to see their answers.",
	URL:   "/checkin",
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

type Pusher interface {
	SendToAllExcept(ctx context.Context, participant string, msg push.Message) error
}

// Retries applies to the realtime broadcast.
type Options struct {
	Retries    int
	RetryDelay time.Duration
}

// Dispatcher queues the broadcast and push for each committed check-in.
// Failures are retried and then logged; they never reach the submitter.
type Dispatcher struct {
	pool      *workerpool.WorkerPool
	publisher Publisher
	pusher    Pusher
	opts      Options
}

func NewDispatcher(pool *workerpool.WorkerPool, publisher Publisher, pusher Pusher, opts Options) *Dispatcher {
	if opts.Retries < 1 {
		opts.Retries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Dispatcher{pool: pool, publisher: publisher, pusher: pusher, opts: opts}
}

func (d *Dispatcher) CheckinSubmitted(participant, date string) {
	event := CheckinSubmitted{Participant: participant, Date: date}

	if d.publisher != nil {
		d.enqueue(EventCheckinSubmitted+" broadcast", d.opts.Retries, func(ctx context.Context) error {
			return d.publisher.Publish(ctx, EventCheckinSubmitted, event)
		})
	}
	if d.pusher != nil {
		// single attempt: push.Service retries per subscription
		d.enqueue(EventCheckinSubmitted+" push", 1, func(ctx context.Context) error {
			return d.pusher.SendToAllExcept(ctx, participant, partnerCheckedIn)
		})
	}
}

func (d *Dispatcher) enqueue(name string, attempts int, job func(ctx context.Context) error) {
	if !d.pool.Submit(workerpool.WithRetry(name, attempts, d.opts.RetryDelay, deadLetter, job)) {
		deadLetter(name, errQueueFull)
	}
}

type dispatchError string

func (e dispatchError) Error() string { return string(e) }

const errQueueFull = dispatchError("notification queue full")

func deadLetter(name string, err error) {
	log.WithFields(log.Fields{"job": name, "error": err}).Error("Notification dropped")
}
