package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/railroadide/richpresence/pkg/config"
	"github.com/railroadide/richpresence/pkg/connection"
	"github.com/railroadide/richpresence/pkg/presence"
	"github.com/railroadide/richpresence/pkg/rpc"
)

// status is the health report served on /healthz and printed by the
// console.
type status struct {
	Supervisor string `json:"supervisor"`
	Connection string `json:"connection"`
	User       string `json:"user,omitempty"`
	ClientID   string `json:"client_id"`
	Presence   string `json:"presence"`
	Activity   string `json:"activity,omitempty"`
	HideAfter  string `json:"hide_after,omitempty"`
}

// healthy reports whether the companion connection is usable.
func (s status) healthy() bool {
	return s.Supervisor == connection.StatusRunning.String() && s.Connection != connection.StateError.String()
}

func snapshot(sup *connection.Supervisor[*rpc.Client], ctrl *presence.Controller, store *config.Store) status {
	st := status{
		Supervisor: sup.Status().String(),
		Connection: connection.StateError.String(),
		ClientID:   store.ClientID(),
		Presence:   ctrl.State().String(),
	}
	if c := sup.Current(); c != nil {
		st.Connection = c.State().String()
		if u := c.CurrentUser(); u != nil {
			st.User = u.Username
		}
	}
	if a := ctrl.LastKnown(); a != nil {
		st.Activity = a.String()
	}
	if d := store.HideAfter(); d > 0 {
		st.HideAfter = d.String()
	}
	return st
}

// newRouter serves Prometheus metrics from registry and the health report.
func newRouter(registry *prometheus.Registry, report func() status) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		st := report()
		code := http.StatusOK
		if !st.healthy() {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(st)
	})
	return r
}
