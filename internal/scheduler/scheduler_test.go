package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FXInsight/internal/collector"
	"FXInsight/internal/dashboard"
	"FXInsight/internal/fairvalue"
	"FXInsight/internal/model"
	"FXInsight/internal/recorder"
)

type fakePipeline struct {
	view      *dashboard.View
	err       error
	refreshes int
}

func (f *fakePipeline) Snapshot(context.Context, dashboard.Query) (*dashboard.View, error) {
	return f.view, f.err
}

func (f *fakePipeline) Refresh(context.Context) (*model.SourceResult, error) {
	f.refreshes++
	if f.err != nil {
		return &model.SourceResult{SourceLabel: model.SourceUnavailable, Attempts: []model.SourceAttempt{{Source: "yahoo", Err: f.err}}}, f.err
	}
	return f.view.Market, nil
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return nil
}

type fakeRecorder struct {
	snapshots []*recorder.Snapshot
	attempts  int
}

func (f *fakeRecorder) RecordSnapshot(s *recorder.Snapshot) error {
	f.snapshots = append(f.snapshots, s)
	return nil
}

func (f *fakeRecorder) RecordAttempts(res *model.SourceResult) error {
	f.attempts += len(res.Attempts)
	return nil
}

func (f *fakeRecorder) Close() error { return nil }

func testView() *dashboard.View {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &dashboard.View{
		Market: &model.SourceResult{
			Series:      model.PriceSeries{Pair: model.Pair{Base: "USD", Quote: "KRW"}, Points: []model.PricePoint{{Date: day, Close: 1330}}},
			LatestPrice: 1330,
			LatestDate:  day,
			SourceLabel: "yahoo",
			Attempts:    []model.SourceAttempt{{Source: "yahoo", Points: 1}},
		},
		FairValue: fairvalue.Result{Version: "v1", Method: fairvalue.Method, FairValue: 1440.5},
		Forecast:  model.ForecastPath{Policy: "linear", Points: []model.ForecastPoint{{Date: day, Price: 1330}}},
	}
}

func newTestScheduler(p Pipeline, s Sender, r recorder.Recorder) *Scheduler {
	return NewScheduler(context.Background(), p, s, r, zerolog.Nop())
}

func TestReportTask_SendsAndRecords(t *testing.T) {
	p := &fakePipeline{view: testView()}
	snd := &fakeSender{}
	rec := &fakeRecorder{}
	newTestScheduler(p, snd, rec).reportTask(recorder.TriggerScheduled)

	require.Len(t, snd.msgs, 1)
	assert.Contains(t, snd.msgs[0], "USD/KRW fair value report")
	require.Len(t, rec.snapshots, 1)
	assert.Equal(t, recorder.TriggerScheduled, rec.snapshots[0].Trigger)
}

func TestReportTask_NoData(t *testing.T) {
	p := &fakePipeline{err: collector.ErrNoData}
	snd := &fakeSender{}
	rec := &fakeRecorder{}
	newTestScheduler(p, snd, rec).reportTask(recorder.TriggerScheduled)

	require.Len(t, snd.msgs, 1)
	assert.Contains(t, snd.msgs[0], "market data unavailable")
	assert.Empty(t, rec.snapshots)
}

func TestReportTask_NilSender(t *testing.T) {
	rec := &fakeRecorder{}
	newTestScheduler(&fakePipeline{view: testView()}, nil, rec).RunReportNow()
	require.Len(t, rec.snapshots, 1)
	assert.Equal(t, recorder.TriggerStartup, rec.snapshots[0].Trigger)
}

func TestRefreshTask_RecordsAttempts(t *testing.T) {
	p := &fakePipeline{view: testView()}
	rec := &fakeRecorder{}
	newTestScheduler(p, nil, rec).refreshTask()
	assert.Equal(t, 1, p.refreshes)
	assert.Equal(t, 1, rec.attempts)
}

func TestHandleCommand(t *testing.T) {
	p := &fakePipeline{view: testView()}
	rec := &fakeRecorder{}
	s := newTestScheduler(p, nil, rec)

	assert.Contains(t, s.HandleCommand(context.Background(), "/report"), "fair value report")
	require.Len(t, rec.snapshots, 1)
	assert.Equal(t, recorder.TriggerCommand, rec.snapshots[0].Trigger)

	assert.Contains(t, s.HandleCommand(context.Background(), "/refresh@fx_bot"), "Market data reloaded")
	assert.Equal(t, 1, p.refreshes)

	assert.Contains(t, s.HandleCommand(context.Background(), "hello"), "/report")
}

func TestHandleCommand_RefreshFailure(t *testing.T) {
	p := &fakePipeline{err: errors.New("boom")}
	reply := newTestScheduler(p, nil, &fakeRecorder{}).HandleCommand(context.Background(), "/refresh")
	assert.Contains(t, reply, "❌ yahoo: boom")
	assert.Contains(t, reply, "No data available.")
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(&fakePipeline{}, nil, nil)
	require.NoError(t, s.RegisterAll("0 0 * * * *", "0 30 16 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 2)

	assert.Error(t, newTestScheduler(&fakePipeline{}, nil, nil).RegisterAll("not a cron", ""))
}
