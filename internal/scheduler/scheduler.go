package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"FXInsight/internal/collector"
	"FXInsight/internal/dashboard"
	"FXInsight/internal/model"
	"FXInsight/internal/notifier"
	"FXInsight/internal/recorder"
)

// Pipeline is the part of the dashboard service the jobs drive.
type Pipeline interface {
	Snapshot(ctx context.Context, q dashboard.Query) (*dashboard.View, error)
	Refresh(ctx context.Context) (*model.SourceResult, error)
}

// Sender delivers reports. Nil disables notifications.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Service  Pipeline
	Notifier Sender
	Recorder recorder.Recorder
	Ctx      context.Context
	log      zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc Pipeline, sender Sender, rec recorder.Recorder, log zerolog.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Notifier: sender,
		Recorder: rec,
		Ctx:      ctx,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the cache refresh and report tasks. An empty schedule skips the task.
func (s *Scheduler) RegisterAll(refreshCron, reportCron string) error {
	if refreshCron != "" {
		if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
			return fmt.Errorf("register refresh task: %w", err)
		}
	}
	if reportCron != "" {
		if _, err := s.Cron.AddFunc(reportCron, func() { s.reportTask(recorder.TriggerScheduled) }); err != nil {
			return fmt.Errorf("register report task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunReportNow executes the report task immediately (RUN_ON_START).
func (s *Scheduler) RunReportNow() {
	s.reportTask(recorder.TriggerStartup)
}

// refreshTask drops memoized market data and warms the cache again.
func (s *Scheduler) refreshTask() {
	s.log.Info().Msg("running refresh task")
	if _, err := s.refresh(s.Ctx); err != nil {
		s.log.Error().Err(err).Msg("refresh market data")
	}
}

func (s *Scheduler) refresh(ctx context.Context) (*model.SourceResult, error) {
	res, err := s.Service.Refresh(ctx)
	if res != nil {
		if rerr := s.Recorder.RecordAttempts(res); rerr != nil {
			s.log.Error().Err(rerr).Msg("record source attempts")
		}
	}
	return res, err
}

func (s *Scheduler) reportTask(trigger string) {
	s.log.Info().Str("trigger", trigger).Msg("running report task")
	text, err := s.report(s.Ctx, trigger)
	if err != nil {
		s.log.Error().Err(err).Msg("build report")
		s.trySend(fmt.Sprintf("❌ Report failed: %v", err))
		return
	}
	s.trySend(text)
}

// report builds a default-input snapshot, journals it and returns the formatted message.
func (s *Scheduler) report(ctx context.Context, trigger string) (string, error) {
	view, err := s.Service.Snapshot(ctx, dashboard.Query{})
	if err != nil {
		if errors.Is(err, collector.ErrNoData) {
			return "", fmt.Errorf("market data unavailable from every source")
		}
		return "", err
	}
	if err := s.Recorder.RecordSnapshot(&recorder.Snapshot{Trigger: trigger, View: view}); err != nil {
		s.log.Error().Err(err).Msg("record snapshot")
	}
	return notifier.FormatReport(view), nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	// Group chats append the bot name: /report@fx_bot.
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}
	switch strings.ToLower(command) {
	case "/report":
		text, err := s.report(ctx, recorder.TriggerCommand)
		if err != nil {
			return fmt.Sprintf("❌ Report failed: %v", err)
		}
		return text
	case "/refresh":
		res, err := s.refresh(ctx)
		if res == nil {
			return fmt.Sprintf("❌ Refresh failed: %v", err)
		}
		return notifier.FormatRefresh(res)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
