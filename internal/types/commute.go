// Package types contains shared data structures for commutewatch.
package types

import (
	"github.com/jackc/pgtype"
	"gorm.io/gorm"
)

// Raw direction codes stored with every slot. The heatmap pipeline maps
// these to display labels.
const (
	DirectionHomeToWork = "H2W"
	DirectionWorkToHome = "W2H"
)

// CommuteSlot is one scheduled departure-time sample for a direction and
// date. The scheduler creates rows with the result fields empty; the
// gatherer fills them in after querying the routing API. DepartureTime
// keeps the RFC3339 text with its original UTC offset so the local
// time-of-day survives storage round trips.
type CommuteSlot struct {
	gorm.Model

	DateLocal          string `gorm:"column:date_local;not null"`
	LocalDepartureTime string `gorm:"column:local_departure_time;not null"`
	DepartureTime      string `gorm:"column:departure_time_rfc3339;uniqueIndex:idx_departure_direction;not null"`
	Direction          string `gorm:"uniqueIndex:idx_departure_direction;not null"`
	DistanceMeters     *int32
	Duration           *string
	Condition          *string
	StatusCode         *string
	StatusMessage      *string
	Response           pgtype.JSONB `gorm:"type:jsonb"`
}

// TableName implements the GORM Tabler interface to specify the correct table name
func (CommuteSlot) TableName() string {
	return "commute_slots"
}

// Gathered reports whether the slot carries a usable travel-time result.
func (s *CommuteSlot) Gathered() bool {
	return s.Duration != nil && *s.Duration != ""
}

// Pending reports whether the slot has not been attempted yet.
func (s *CommuteSlot) Pending() bool {
	return s.StatusCode == nil || *s.StatusCode == ""
}
