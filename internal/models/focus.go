package models

// FocusState is the inferred attention state of the user.
type FocusState string

const (
	FocusStateFocused    FocusState = "focused"
	FocusStateDistracted FocusState = "distracted"
	FocusStateSearching  FocusState = "searching"
	FocusStateUnknown    FocusState = "unknown"
)

// VerdictSource records which stage produced a verdict.
type VerdictSource string

const (
	SourceRules   VerdictSource = "rules"
	SourceAI      VerdictSource = "ai"
	SourceDefault VerdictSource = "default"
	SourceError   VerdictSource = "error"
)

// FocusVerdict is the per-tick classification result. It is never persisted.
type FocusVerdict struct {
	State      FocusState    `json:"state"`
	Confidence float64       `json:"confidence"`
	Reason     string        `json:"reason"`
	Source     VerdictSource `json:"source"`
}

// IsStudying reports whether the verdict counts as study time.
// Searching is neutral and treated as study so the grace period never penalizes.
func (v FocusVerdict) IsStudying() bool {
	return v.State == FocusStateFocused || v.State == FocusStateSearching
}
