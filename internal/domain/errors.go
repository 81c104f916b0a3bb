package domain

import "fmt"

// ValidationFailed reports a field that violated a business rule before the
// mutation reached the store.
type ValidationFailed struct {
	Field  string
	Reason string
}

func (e ValidationFailed) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NotFound reports a missing entity lookup.
type NotFound struct {
	Kind string
	ID   int64
}

func (e NotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// TimestampOrderingViolation reports a phase whose finish timestamp does not
// follow a set start timestamp.
type TimestampOrderingViolation struct {
	Phase Phase
}

func (e TimestampOrderingViolation) Error() string {
	return fmt.Sprintf("%s finish timestamp must follow a set start timestamp", e.Phase)
}

// SequenceGap reports a plotting step batch whose order positions do not form
// a contiguous 1..N sequence.
type SequenceGap struct {
	SourceDataID int64
	Positions    []int
}

func (e SequenceGap) Error() string {
	return fmt.Sprintf("plotting steps for source data %d do not form a contiguous sequence: %v", e.SourceDataID, e.Positions)
}

// MixedEntity reports a plotting step batch spanning more than one source
// data entry.
type MixedEntity struct {
	SourceDataIDs []int64
}

func (e MixedEntity) Error() string {
	return fmt.Sprintf("plotting step batch spans multiple source data entries: %v", e.SourceDataIDs)
}

// UniqueViolation is the typed form of a unique constraint failure reported
// by the store.
type UniqueViolation struct {
	Constraint string
}

func (e UniqueViolation) Error() string {
	if e.Constraint == "" {
		return "unique constraint violated"
	}
	return fmt.Sprintf("unique constraint %s violated", e.Constraint)
}

// ForeignKeyViolation is the typed form of a foreign key failure reported by
// the store.
type ForeignKeyViolation struct {
	Constraint string
}

func (e ForeignKeyViolation) Error() string {
	if e.Constraint == "" {
		return "foreign key constraint violated"
	}
	return fmt.Sprintf("foreign key constraint %s violated", e.Constraint)
}

// CheckViolation is the typed form of a check constraint failure reported by
// the store.
type CheckViolation struct {
	Constraint string
}

func (e CheckViolation) Error() string {
	if e.Constraint == "" {
		return "check constraint violated"
	}
	return fmt.Sprintf("check constraint %s violated", e.Constraint)
}
