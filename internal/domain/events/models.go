package events

import "leaveportal/internal/domain/calendar"

// MaxBatchSize caps how many per-day entries one create call may carry.
const MaxBatchSize = 1000

// DayView is the drill-down for a single calendar day.
type DayView struct {
	Date         string                  `json:"date"`
	Events       []calendar.DisplayEvent `json:"events"`
	MultiOverlap bool                    `json:"multiOverlap"`
	Active       []calendar.TitleSummary `json:"active"`
}
