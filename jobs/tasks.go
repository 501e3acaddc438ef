package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGLIntegrityScan re-verifies the double-entry invariant over
	// posted journals.
	TaskGLIntegrityScan = "gl:integrity_scan"
)

// NewGLIntegrityScanTask constructs the scan task. The scan takes no
// parameters; it always covers every tenant.
func NewGLIntegrityScanTask() *asynq.Task {
	return asynq.NewTask(TaskGLIntegrityScan, nil)
}
