package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/push"
	"github.com/paulexconde/together/internal/realtime"
)

type SubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func Subscribe(pushes push.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := SubscribeRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badRequest(w, r, "notifications.subscribe.parse_body", "invalid request body")
			return
		}

		err := pushes.Subscribe(r.Context(), ParticipantFrom(r.Context()), req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
		if err != nil {
			writeError(w, r, "notifications.subscribe", err)
			return
		}
		respond(w, r, http.StatusCreated, map[string]string{"message": "Subscribed"})
	}
}

func Unsubscribe(pushes push.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := UnsubscribeRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil || req.Endpoint == "" {
			badRequest(w, r, "notifications.unsubscribe.parse_body", "endpoint is required")
			return
		}

		if err := pushes.Unsubscribe(r.Context(), req.Endpoint); err != nil {
			writeError(w, r, "notifications.unsubscribe", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Events streams hub events to the client as server-sent events.
func Events(hub *realtime.Hub, keepAlive time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		events, cancel := hub.Subscribe()
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		participant := ParticipantFrom(r.Context())
		log.Debugf("Realtime client connected: %s", participant)
		defer log.Debugf("Realtime client disconnected: %s", participant)

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case ev, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(ev.Data)
				if err != nil {
					log.Errorf("realtime.encode_event: %s", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
