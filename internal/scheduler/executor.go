package scheduler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aibekov/webcron/internal/classify"
	"github.com/aibekov/webcron/internal/domain"
)

// BodyPreviewLimit caps the response-body preview stored on a run.
const BodyPreviewLimit = 1000

// RunListener observes every completed run. Listeners are invoked
// synchronously in registration order; a panicking listener is logged
// and must not stop the remaining listeners or alter the run.
type RunListener func(ctx context.Context, run *domain.Run)

// Executor performs one outbound call for a schedule's target and turns
// whatever happened into a run record. It never returns an error: every
// transport outcome, including ones where no request was ever sent,
// becomes a FAILURE run with a classified error kind.
type Executor struct {
	client    *http.Client
	logger    *slog.Logger
	listeners []RunListener
}

func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{
		client: &http.Client{}, // no global timeout, each schedule sets its own
		logger: logger.With("component", "executor"),
	}
}

// AddListener registers a run observer. Not safe to call concurrently
// with Execute; wire all listeners at startup.
func (e *Executor) AddListener(l RunListener) {
	e.listeners = append(e.listeners, l)
}

func (e *Executor) Execute(ctx context.Context, s *domain.Schedule) *domain.Run {
	start := time.Now()

	timeout := time.Duration(s.Config.TimeoutSeconds()) * time.Second
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := s.Target

	var bodyReader io.Reader
	if target.Body != nil {
		bodyReader = strings.NewReader(*target.Body)
	}

	req, err := http.NewRequestWithContext(callCtx, target.Method, target.URL, bodyReader)
	if err != nil {
		return e.finish(ctx, e.failureRun(s, start, target.Headers, err))
	}
	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}
	sentHeaders := headerSnapshot(req.Header)

	resp, err := e.client.Do(req)
	if err != nil {
		return e.finish(ctx, e.failureRun(s, start, sentHeaders, err))
	}
	defer func() { _ = resp.Body.Close() }()

	var preview bytes.Buffer
	size, _ := io.Copy(&preview, io.LimitReader(resp.Body, BodyPreviewLimit))
	rest, _ := io.Copy(io.Discard, resp.Body) // drain so the connection can be reused by the pool
	size += rest

	run := &domain.Run{
		ScheduleID:     s.ID,
		ExecutedAt:     start.UTC(),
		StatusCode:     resp.StatusCode,
		LatencyMS:      time.Since(start).Milliseconds(),
		SizeBytes:      size,
		ResponseBody:   preview.String(),
		RequestHeaders: sentHeaders,
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		run.Status = domain.RunSuccess
	} else {
		run.Status = domain.RunFailure
		kind := classify.FromStatusCode(resp.StatusCode)
		run.ErrorKind = &kind
	}
	return e.finish(ctx, run)
}

// failureRun builds the run for an attempt that produced no response.
func (e *Executor) failureRun(s *domain.Schedule, start time.Time, headers map[string]string, err error) *domain.Run {
	kind := classify.FromError(err)
	desc := err.Error()
	if len(desc) > BodyPreviewLimit {
		desc = desc[:BodyPreviewLimit]
	}
	return &domain.Run{
		ScheduleID:     s.ID,
		ExecutedAt:     start.UTC(),
		Status:         domain.RunFailure,
		StatusCode:     0,
		LatencyMS:      time.Since(start).Milliseconds(),
		ErrorKind:      &kind,
		ResponseBody:   desc,
		RequestHeaders: headers,
	}
}

func (e *Executor) finish(ctx context.Context, run *domain.Run) *domain.Run {
	for _, l := range e.listeners {
		e.notify(ctx, l, run)
	}
	return run
}

func (e *Executor) notify(ctx context.Context, l RunListener, run *domain.Run) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("run listener panicked", "schedule_id", run.ScheduleID, "panic", r)
		}
	}()
	l(ctx, run)
}

func headerSnapshot(h http.Header) map[string]string {
	snap := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) > 0 {
			snap[k] = vs[0]
		}
	}
	return snap
}
