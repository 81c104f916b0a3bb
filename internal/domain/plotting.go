package domain

import (
	"sort"
	"strings"
)

// PlottingMethodStep is one ordered step of a source data entry's plotting
// pipeline. The (source data id, position) pair is the primary key.
type PlottingMethodStep struct {
	SdID     int64 `json:"sd_id"`
	Position int   `json:"position"`
	MethodID int64 `json:"method_id"`
}

// ValidateStepBatch checks a bulk insert/update batch against the ordered
// pipeline rules. Every step must belong to the same source data entry and
// the declared positions, once ranked, must be exactly 1..N. The check is a
// set-level property, so it runs once over the full batch rather than per
// row.
func ValidateStepBatch(steps []PlottingMethodStep) error {
	if len(steps) == 0 {
		return ValidationFailed{Field: "steps", Reason: "must not be empty"}
	}

	seen := map[int64]struct{}{}
	ids := make([]int64, 0, 1)
	for _, step := range steps {
		if _, ok := seen[step.SdID]; !ok {
			seen[step.SdID] = struct{}{}
			ids = append(ids, step.SdID)
		}
	}
	if len(ids) > 1 {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return MixedEntity{SourceDataIDs: ids}
	}

	positions := make([]int, len(steps))
	for i, step := range steps {
		positions[i] = step.Position
	}
	sort.Ints(positions)
	for rank, position := range positions {
		if position != rank+1 {
			return SequenceGap{SourceDataID: ids[0], Positions: positions}
		}
	}
	return nil
}

// PlottingFields is the optional one-to-one geocoding metadata of a source
// data entry.
type PlottingFields struct {
	SdID    int64   `json:"sd_id"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	Lat     *string `json:"lat,omitempty"`
	Long    *string `json:"long,omitempty"`
}

// Validate rejects present-but-blank geocoding fields.
func (pf PlottingFields) Validate() error {
	for field, value := range map[string]*string{
		"address": pf.Address,
		"city":    pf.City,
		"lat":     pf.Lat,
		"long":    pf.Long,
	} {
		if value != nil && strings.TrimSpace(*value) == "" {
			return ValidationFailed{Field: field, Reason: "must not be blank when present"}
		}
	}
	return nil
}
