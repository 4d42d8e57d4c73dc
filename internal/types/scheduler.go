package types

import "errors"

// Scheduler trigger errors shared between the gatherer and the REST API.
var (
	ErrRunInFlight         = errors.New("a gathering run is already in flight")
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
)

// SchedulerStatus is a snapshot of the gathering scheduler for the health
// endpoints. Times are RFC3339 strings.
type SchedulerStatus struct {
	Running     bool   `json:"scheduler_running"`
	InFlight    bool   `json:"run_in_flight"`
	Schedule    string `json:"schedule"`
	Timezone    string `json:"timezone"`
	NextRunTime string `json:"next_run_time,omitempty"`
	LastRunID   string `json:"last_run_id,omitempty"`
	LastRunTime string `json:"last_run_time,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}
