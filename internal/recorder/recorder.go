package recorder

import (
	"FXInsight/internal/dashboard"
	"FXInsight/internal/model"
)

// Trigger values stored with each snapshot.
const (
	TriggerScheduled = "SCHEDULED"
	TriggerCommand   = "COMMAND"
	TriggerStartup   = "STARTUP"
)

// Snapshot holds one computed dashboard view and what produced it.
type Snapshot struct {
	Trigger string
	View    *dashboard.View
}

// Recorder journals computed snapshots and fetch outcomes for later analysis.
// Nothing in the process reads the journal back.
type Recorder interface {
	RecordSnapshot(snap *Snapshot) error
	RecordAttempts(res *model.SourceResult) error
	Close() error
}
