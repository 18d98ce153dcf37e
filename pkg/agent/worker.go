// Copyright 2025 VeloxVOIP.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package agent runs the voice-assistant worker: it turns room lifecycle
// webhooks into jobs and runs one Session per job.
package agent

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/logger"
	"github.com/livekit/protocol/webhook"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/veloxvoip/telephony-agent/pkg/config"
	"github.com/veloxvoip/telephony-agent/pkg/dispatch"
)

var (
	jobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "telephony_agent",
		Name:      "jobs_started_total",
		Help:      "Agent jobs accepted from dispatches.",
	})
	jobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "telephony_agent",
		Name:      "jobs_completed_total",
		Help:      "Agent jobs that finished without error.",
	})
	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "telephony_agent",
		Name:      "jobs_failed_total",
		Help:      "Agent jobs that ended with an error.",
	})
)

// Worker consumes room_started webhooks, matches agent dispatches against
// the configured agent name, and runs a Session per matched dispatch.
type Worker struct {
	conf     *config.Config
	disp     *dispatch.Service
	sc       SessionConfig
	policy   CallPolicy
	verifier auth.KeyProvider
	log      logger.Logger

	jobs    sync.WaitGroup
	handled sync.Map // dispatch ID -> struct{}
}

func NewWorker(conf *config.Config) (*Worker, error) {
	if err := conf.ValidateLiveKit(); err != nil {
		return nil, err
	}
	disp, err := dispatch.NewService(conf)
	if err != nil {
		return nil, err
	}
	return &Worker{
		conf:     conf,
		disp:     disp,
		sc:       DefaultSessionConfig(),
		policy:   DefaultCallPolicy(),
		verifier: auth.NewSimpleKeyProvider(conf.LiveKit.APIKey, conf.LiveKit.APISecret),
		log:      logger.GetLogger(),
	}, nil
}

// SetPolicy replaces the call policy applied to new sessions.
func (w *Worker) SetPolicy(p CallPolicy) { w.policy = p }

// SetSessionConfig replaces the pipeline configuration for new sessions.
func (w *Worker) SetSessionConfig(sc SessionConfig) { w.sc = sc }

// Run serves the webhook and health endpoints until ctx is canceled, then
// drains in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	webhookMux := http.NewServeMux()
	webhookMux.HandleFunc("/webhook", w.handleWebhook(ctx))

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	healthMux.Handle("/metrics", promhttp.Handler())

	webhookSrv := &http.Server{Addr: fmt.Sprintf(":%d", w.conf.WebhookPort), Handler: webhookMux}
	healthSrv := &http.Server{Addr: fmt.Sprintf(":%d", w.conf.HealthPort), Handler: healthMux}

	errCh := make(chan error, 2)
	go func() {
		w.log.Infow("webhook listener started", "port", w.conf.WebhookPort)
		if err := webhookSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	go func() {
		w.log.Infow("health listener started", "port", w.conf.HealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = errors.Wrap(err, "worker listener failed")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = webhookSrv.Shutdown(shutCtx)
	_ = healthSrv.Shutdown(shutCtx)

	w.log.Infow("waiting for active jobs to finish")
	w.jobs.Wait()
	return runErr
}

// handleWebhook verifies and decodes platform webhooks. Only room_started
// matters: it means a room exists that may carry a dispatch for this agent.
func (w *Worker) handleWebhook(ctx context.Context) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		payload, err := webhook.Receive(r, w.verifier)
		if err != nil {
			w.log.Warnw("rejecting webhook", err)
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}
		var ev livekit.WebhookEvent
		if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(payload, &ev); err != nil {
			w.log.Warnw("decoding webhook event", err)
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		rw.WriteHeader(http.StatusOK)

		if ev.Event != webhook.EventRoomStarted || ev.Room == nil {
			return
		}
		go w.takeJobs(ctx, ev.Room.Name)
	}
}

// takeJobs claims every dispatch in the room addressed to this agent.
func (w *Worker) takeJobs(ctx context.Context, room string) {
	dispatches, err := w.disp.List(ctx, room)
	if err != nil {
		w.log.Errorw("listing dispatches for room", err, "room", room)
		return
	}
	for _, d := range dispatches {
		if d.AgentName != w.conf.AgentName {
			continue
		}
		if _, seen := w.handled.LoadOrStore(d.Id, struct{}{}); seen {
			continue
		}
		job := &JobContext{
			RoomName:   room,
			DispatchID: d.Id,
			Metadata:   d.Metadata,
			conf:       w.conf,
			log:        w.log.WithValues("room", room, "dispatchID", d.Id),
		}
		w.jobs.Add(1)
		jobsStarted.Inc()
		go func() {
			defer w.jobs.Done()
			if err := w.runJob(ctx, job); err != nil {
				jobsFailed.Inc()
				w.log.Errorw("job failed", err, "room", job.RoomName, "dispatchID", job.DispatchID)
				return
			}
			jobsCompleted.Inc()
		}()
	}
}

func (w *Worker) runJob(ctx context.Context, job *JobContext) error {
	w.log.Infow("job started", "room", job.RoomName, "dispatchID", job.DispatchID)
	sess := NewSession(w.conf, w.sc, w.policy, job.log)
	err := sess.Run(ctx, job)
	if err == nil || errors.Is(err, context.Canceled) {
		w.log.Infow("job finished", "room", job.RoomName)
		return nil
	}
	return err
}
