package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestValidateStepBatch(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		err := ValidateStepBatch(nil)
		var validation ValidationFailed
		if !errors.As(err, &validation) {
			t.Fatalf("expected ValidationFailed, got %v", err)
		}
	})

	t.Run("contiguous out of order", func(t *testing.T) {
		steps := []PlottingMethodStep{
			{SdID: 4, Position: 3, MethodID: 1},
			{SdID: 4, Position: 1, MethodID: 2},
			{SdID: 4, Position: 2, MethodID: 3},
		}
		if err := ValidateStepBatch(steps); err != nil {
			t.Fatalf("declared order should not matter: %v", err)
		}
	})

	t.Run("gap", func(t *testing.T) {
		steps := []PlottingMethodStep{
			{SdID: 4, Position: 1, MethodID: 1},
			{SdID: 4, Position: 3, MethodID: 2},
		}
		err := ValidateStepBatch(steps)
		var gap SequenceGap
		if !errors.As(err, &gap) {
			t.Fatalf("expected SequenceGap, got %v", err)
		}
		if gap.SourceDataID != 4 {
			t.Errorf("gap names source data %d, want 4", gap.SourceDataID)
		}
		if !reflect.DeepEqual(gap.Positions, []int{1, 3}) {
			t.Errorf("gap positions = %v, want [1 3]", gap.Positions)
		}
	})

	t.Run("zero based", func(t *testing.T) {
		steps := []PlottingMethodStep{
			{SdID: 4, Position: 0, MethodID: 1},
			{SdID: 4, Position: 1, MethodID: 2},
		}
		var gap SequenceGap
		if !errors.As(ValidateStepBatch(steps), &gap) {
			t.Fatal("zero based positions accepted")
		}
	})

	t.Run("duplicate position", func(t *testing.T) {
		steps := []PlottingMethodStep{
			{SdID: 4, Position: 1, MethodID: 1},
			{SdID: 4, Position: 1, MethodID: 2},
		}
		var gap SequenceGap
		if !errors.As(ValidateStepBatch(steps), &gap) {
			t.Fatal("duplicate positions accepted")
		}
	})

	t.Run("mixed entities", func(t *testing.T) {
		steps := []PlottingMethodStep{
			{SdID: 9, Position: 1, MethodID: 1},
			{SdID: 4, Position: 2, MethodID: 2},
		}
		err := ValidateStepBatch(steps)
		var mixed MixedEntity
		if !errors.As(err, &mixed) {
			t.Fatalf("expected MixedEntity, got %v", err)
		}
		if !reflect.DeepEqual(mixed.SourceDataIDs, []int64{4, 9}) {
			t.Errorf("mixed ids = %v, want sorted [4 9]", mixed.SourceDataIDs)
		}
	})
}

func TestPlottingFieldsValidate(t *testing.T) {
	addr := "100 Main St"
	blank := "   "
	ok := PlottingFields{SdID: 1, Address: &addr}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid fields rejected: %v", err)
	}
	if err := (PlottingFields{SdID: 1}).Validate(); err != nil {
		t.Fatalf("all-nil fields rejected: %v", err)
	}
	bad := PlottingFields{SdID: 1, City: &blank}
	if err := bad.Validate(); err == nil {
		t.Error("blank city accepted")
	}
}
