package domain

import "time"

// LoadState is the workflow state of a load instance.
type LoadState string

const (
	LoadStateReady  LoadState = "Ready"
	LoadStateActive LoadState = "Active"
	LoadStateHold   LoadState = "Hold"
)

// Valid reports whether the state is one of the known states.
func (s LoadState) Valid() bool {
	switch s {
	case LoadStateReady, LoadStateActive, LoadStateHold:
		return true
	}
	return false
}

// MergeType is the policy describing how a load instance's records merge with
// prior production data.
type MergeType string

const (
	MergeTypeNone      MergeType = "None"
	MergeTypeExclusive MergeType = "Exclusive"
	MergeTypeIntersect MergeType = "Intersect"
)

// Valid reports whether the merge type is one of the known policies.
func (m MergeType) Valid() bool {
	switch m {
	case MergeTypeNone, MergeTypeExclusive, MergeTypeIntersect:
		return true
	}
	return false
}

// Phase names one of the three stages a load instance moves through.
type Phase string

const (
	PhaseCollect Phase = "collect"
	PhaseLoad    Phase = "load"
	PhaseCheck   Phase = "check"
)

// PhaseDetail holds the per phase bookkeeping of a load instance: the user
// working the phase, its start/finish timestamps, and the external workflow
// run handed back by the runner.
type PhaseDetail struct {
	UserID     *int64     `json:"user_id,omitempty"`
	Start      *time.Time `json:"start,omitempty"`
	Finish     *time.Time `json:"finish,omitempty"`
	WorkflowID int64      `json:"workflow_id"`
	RunID      *int64     `json:"run_id,omitempty"`
}

// LoadInstance is one versioned collection/load/check cycle for a data source.
type LoadInstance struct {
	LiID            int64          `json:"li_id"`
	DsID            int64          `json:"ds_id"`
	VersionDate     time.Time      `json:"version_date"`
	State           LoadState      `json:"state"`
	MergeType       MergeType      `json:"merge_type"`
	ProductionCount int64          `json:"production_count"`
	StagingCount    int64          `json:"staging_count"`
	MatchCount      int64          `json:"match_count"`
	NewCount        int64          `json:"new_count"`
	Statistics      map[string]any `json:"statistics,omitempty"`
	Collect         PhaseDetail    `json:"collect"`
	Load            PhaseDetail    `json:"load"`
	Check           PhaseDetail    `json:"check"`
	Done            *time.Time     `json:"done,omitempty"`
	Created         time.Time      `json:"created"`
	LastUpdated     *time.Time     `json:"last_updated,omitempty"`
}

// PhaseDetail returns the detail block for the named phase.
func (li *LoadInstance) PhaseDetail(phase Phase) *PhaseDetail {
	switch phase {
	case PhaseCollect:
		return &li.Collect
	case PhaseLoad:
		return &li.Load
	case PhaseCheck:
		return &li.Check
	}
	return nil
}

// IsParticipant reports whether the user is recorded as one of the three
// phase users on this load instance.
func (li LoadInstance) IsParticipant(userID int64) bool {
	for _, detail := range []PhaseDetail{li.Collect, li.Load, li.Check} {
		if detail.UserID != nil && *detail.UserID == userID {
			return true
		}
	}
	return false
}

// ValidatePhaseTimestamps checks the start/finish pair of one phase. A finish
// timestamp requires a strictly earlier start timestamp; a fully unset pair
// is valid.
func ValidatePhaseTimestamps(phase Phase, start, finish *time.Time) error {
	if finish == nil {
		return nil
	}
	if start == nil || !finish.After(*start) {
		return TimestampOrderingViolation{Phase: phase}
	}
	return nil
}

// Validate checks every field invariant of the load instance that does not
// require a store lookup.
func (li LoadInstance) Validate() error {
	if !li.State.Valid() {
		return ValidationFailed{Field: "state", Reason: "unknown load state"}
	}
	if !li.MergeType.Valid() {
		return ValidationFailed{Field: "merge_type", Reason: "unknown merge type"}
	}
	for field, count := range map[string]int64{
		"production_count": li.ProductionCount,
		"staging_count":    li.StagingCount,
		"match_count":      li.MatchCount,
		"new_count":        li.NewCount,
	} {
		if count < 0 {
			return ValidationFailed{Field: field, Reason: "must not be negative"}
		}
	}
	for _, phase := range []Phase{PhaseCollect, PhaseLoad, PhaseCheck} {
		detail := li.PhaseDetail(phase)
		if err := ValidatePhaseTimestamps(phase, detail.Start, detail.Finish); err != nil {
			return err
		}
	}
	return nil
}
