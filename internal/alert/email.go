package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
	"golang.org/x/time/rate"

	"github.com/aibekov/webcron/internal/domain"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs alerts instead of sending them — used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("failure alert (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends alerts via the Resend API — used in staging/production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Notifier emails the operator when a dispatch fails. A token bucket
// caps the alert volume so a target that is hard down does not flood
// the inbox every poll tick.
type Notifier struct {
	sender  Sender
	to      string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewNotifier allows one alert per 10 minutes with a small burst.
func NewNotifier(sender Sender, to string, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		to:      to,
		limiter: rate.NewLimiter(rate.Every(10*time.Minute), 3),
		logger:  logger,
	}
}

// OnRunComplete is registered as an executor listener.
func (n *Notifier) OnRunComplete(ctx context.Context, run *domain.Run) {
	if run.Status != domain.RunFailure {
		return
	}
	if !n.limiter.Allow() {
		n.logger.Debug("failure alert suppressed by rate limit", "schedule_id", run.ScheduleID)
		return
	}

	kind := "UNKNOWN"
	if run.ErrorKind != nil {
		kind = string(*run.ErrorKind)
	}
	subject := fmt.Sprintf("webcron: dispatch failed (%s)", kind)
	body := fmt.Sprintf(
		"<p>Schedule <code>%s</code> failed at %s.</p><p>Kind: %s, status code: %d, latency: %dms.</p>",
		run.ScheduleID, run.ExecutedAt.Format("2006-01-02 15:04:05 UTC"), kind, run.StatusCode, run.LatencyMS,
	)
	if err := n.sender.Send(ctx, n.to, subject, body); err != nil {
		n.logger.Error("failed to send failure alert", "error", err, "schedule_id", run.ScheduleID)
	}
}
