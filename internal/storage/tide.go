package storage

import "time"

// TimeLayout is the timestamp format used everywhere a time travels
// through a record or a tool result.
const TimeLayout = time.RFC3339Nano

// FlowType is the recurrence category of a tide.
type FlowType string

const (
	FlowDaily    FlowType = "daily"
	FlowWeekly   FlowType = "weekly"
	FlowProject  FlowType = "project"
	FlowSeasonal FlowType = "seasonal"
)

// TideStatus is the lifecycle state of a tide.
type TideStatus string

const (
	StatusActive    TideStatus = "active"
	StatusPaused    TideStatus = "paused"
	StatusCompleted TideStatus = "completed"
)

// FlowIntensity labels how hard a flow session is meant to be.
type FlowIntensity string

const (
	IntensityGentle   FlowIntensity = "gentle"
	IntensityModerate FlowIntensity = "moderate"
	IntensityStrong   FlowIntensity = "strong"
)

// FlowEntry is one logged flow session in a tide's history.
type FlowEntry struct {
	Timestamp string        `json:"timestamp" validate:"required"`
	Intensity FlowIntensity `json:"intensity" validate:"required,oneof=gentle moderate strong"`
	Duration  int           `json:"duration" validate:"min=0"`
	Notes     string        `json:"notes,omitempty"`
}

// Tide is a single tidal workflow record. Each tide is persisted as
// one JSON file named <id>.json in the storage directory.
type Tide struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	FlowType    FlowType    `json:"flow_type"`
	Status      TideStatus  `json:"status"`
	CreatedAt   string      `json:"created_at"`
	LastFlow    string      `json:"last_flow,omitempty"`
	NextFlow    string      `json:"next_flow,omitempty"`
	Description string      `json:"description,omitempty"`
	FlowHistory []FlowEntry `json:"flow_history"`
}

// CreateTideInput carries the caller-supplied fields for a new tide.
type CreateTideInput struct {
	Name        string   `validate:"required"`
	FlowType    FlowType `validate:"required,oneof=daily weekly project seasonal"`
	Description string
}

// ListFilter narrows a List scan. Zero values mean "no filter"; the
// filters compose (AND).
type ListFilter struct {
	FlowType   FlowType `validate:"omitempty,oneof=daily weekly project seasonal"`
	ActiveOnly bool
}

// TidePatch is a typed partial update. Only non-nil fields are
// applied. The ID field is accepted for caller convenience but always
// ignored: ids are immutable for the life of a record.
type TidePatch struct {
	ID          *string
	Name        *string     `validate:"omitempty,min=1"`
	Status      *TideStatus `validate:"omitempty,oneof=active paused completed"`
	LastFlow    *string
	NextFlow    *string
	Description *string
	FlowHistory []FlowEntry `validate:"omitempty,dive"`
}

// NextFlowAfter computes the next expected session time for a flow
// type from the reference time t. Project tides have no automatic
// schedule and yield an empty string.
func NextFlowAfter(flowType FlowType, t time.Time) string {
	switch flowType {
	case FlowDaily:
		return t.Add(24 * time.Hour).Format(TimeLayout)
	case FlowWeekly:
		return t.Add(7 * 24 * time.Hour).Format(TimeLayout)
	case FlowSeasonal:
		return t.Add(90 * 24 * time.Hour).Format(TimeLayout)
	}
	return ""
}
