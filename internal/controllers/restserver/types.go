package restserver

import "commutewatch/internal/types"

type rootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

type directionsResponse struct {
	Directions []string `json:"directions"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type schedulerStatusResponse struct {
	types.SchedulerStatus
	CurrentTimeUTC string `json:"current_time_utc"`
}

type triggerResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
	Time   string `json:"time"`
}
