// Package jobs wires background tasks executed by the Asynq worker.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeExpireAssignments sweeps assignments whose expiry has passed.
	TaskTypeExpireAssignments = "assignments:expire_due"
)

// ExpireAssignmentsPayload carries the sweep cutoff instant.
type ExpireAssignmentsPayload struct {
	Cutoff time.Time `json:"cutoff"`
}

// NewExpireAssignmentsTask constructs an Asynq task for the expiry sweep.
func NewExpireAssignmentsTask(cutoff time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(ExpireAssignmentsPayload{Cutoff: cutoff})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeExpireAssignments, data), nil
}
