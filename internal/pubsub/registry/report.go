package registry

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Subscription is one event type and its subscribers, used by the report
// and the /registry endpoint.
type Subscription struct {
	EventType string   `json:"event_type"`
	Handlers  []string `json:"handlers"`
}

// Summary describes a registry snapshot.
type Summary struct {
	Handlers      []HandlerSummary `json:"handlers"`
	Subscriptions []Subscription   `json:"subscriptions"`
}

type HandlerSummary struct {
	Name      string `json:"name"`
	EventType string `json:"event_type"`
	Queue     string `json:"queue,omitempty"`
}

// Summarize returns the handlers and subscriptions of r.
func (r *Registry) Summarize() Summary {
	s := Summary{
		Handlers:      make([]HandlerSummary, 0, len(r.all)),
		Subscriptions: make([]Subscription, 0, len(r.subscribers)),
	}
	for _, d := range r.all {
		s.Handlers = append(s.Handlers, HandlerSummary{Name: d.Name, EventType: d.EventType, Queue: d.Queue})
	}
	for _, eventType := range r.EventTypes() {
		sub := Subscription{EventType: eventType}
		for _, d := range r.subscribers[eventType] {
			sub.Handlers = append(sub.Handlers, d.Name)
		}
		s.Subscriptions = append(s.Subscriptions, sub)
	}

	return s
}

// Report logs the registry contents along with the workflow and activity
// names a worker registered.
func Report(logger *zap.Logger, r *Registry, workflows, activities []string) {
	s := r.Summarize()

	for _, name := range workflows {
		logger.Info("registered workflow", zap.String("workflow", name))
	}
	for _, name := range activities {
		logger.Info("registered activity", zap.String("activity", name))
	}
	for _, sub := range s.Subscriptions {
		logger.Info("event subscription", zap.String("event_type", sub.EventType), zap.Strings("handlers", sub.Handlers))
	}
	if len(s.Subscriptions) == 0 {
		logger.Info("no event subscriptions")
	}

	logger.Info("registry summary",
		zap.Int("workflows", len(workflows)),
		zap.Int("activities", len(activities)),
		zap.Int("event_types", len(s.Subscriptions)),
		zap.Int("subscriptions", len(s.Handlers)),
	)
}

// SummaryHandler serves the summary of the snapshot in h as JSON. It answers
// 503 until the first snapshot is published.
func SummaryHandler(h *Holder, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		r := h.Load()
		if r == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"discovering"}`))
			return
		}

		if err := json.NewEncoder(w).Encode(r.Summarize()); err != nil {
			logger.Error("failed to encode registry summary", zap.Error(err))
		}
	})
}
