package domain

import (
	"errors"
	"testing"
	"time"
)

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", value, err)
	}
	return &parsed
}

func TestValidatePhaseTimestamps(t *testing.T) {
	start := ts(t, "2026-03-01T09:00:00Z")
	finish := ts(t, "2026-03-01T10:00:00Z")

	tests := []struct {
		name    string
		start   *time.Time
		finish  *time.Time
		wantErr bool
	}{
		{"both unset", nil, nil, false},
		{"start only", start, nil, false},
		{"start then finish", start, finish, false},
		{"finish without start", nil, finish, true},
		{"finish equals start", start, start, true},
		{"finish before start", finish, start, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhaseTimestamps(PhaseCollect, tt.start, tt.finish)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got err=%v, wantErr=%t", err, tt.wantErr)
			}
			if err != nil {
				var violation TimestampOrderingViolation
				if !errors.As(err, &violation) {
					t.Fatalf("expected TimestampOrderingViolation, got %T", err)
				}
				if violation.Phase != PhaseCollect {
					t.Errorf("violation names phase %q, want %q", violation.Phase, PhaseCollect)
				}
			}
		})
	}
}

func TestLoadInstanceValidate(t *testing.T) {
	valid := LoadInstance{
		LiID:      1,
		DsID:      1,
		State:     LoadStateReady,
		MergeType: MergeTypeNone,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid instance rejected: %v", err)
	}

	badState := valid
	badState.State = "Paused"
	if err := badState.Validate(); err == nil {
		t.Error("unknown state accepted")
	}

	badMerge := valid
	badMerge.MergeType = "Union"
	if err := badMerge.Validate(); err == nil {
		t.Error("unknown merge type accepted")
	}

	negative := valid
	negative.MatchCount = -1
	if err := negative.Validate(); err == nil {
		t.Error("negative counter accepted")
	}

	badPhase := valid
	badPhase.Load.Finish = ts(t, "2026-03-01T10:00:00Z")
	if err := badPhase.Validate(); err == nil {
		t.Error("finish without start accepted")
	}
}

func TestIsParticipant(t *testing.T) {
	collector := int64(7)
	checker := int64(9)
	li := LoadInstance{
		Collect: PhaseDetail{UserID: &collector},
		Check:   PhaseDetail{UserID: &checker},
	}
	if !li.IsParticipant(7) {
		t.Error("collect user not recognized as participant")
	}
	if !li.IsParticipant(9) {
		t.Error("check user not recognized as participant")
	}
	if li.IsParticipant(8) {
		t.Error("stranger recognized as participant")
	}
}
