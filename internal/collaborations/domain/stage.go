// Package domain provides core business rules for the collaborations bounded context.
package domain

import "strings"

// Stage is a position in the collaboration pipeline.
type Stage string

const (
	StageLead      Stage = "LEAD"
	StageContacted Stage = "CONTACTED"
	StageQuoted    Stage = "QUOTED"
	StageSampled   Stage = "SAMPLED"
	StageScheduled Stage = "SCHEDULED"
	StagePublished Stage = "PUBLISHED"
	StageReviewed  Stage = "REVIEWED"
)

// stageOrder is the fixed display and progression order of the pipeline.
var stageOrder = []Stage{
	StageLead,
	StageContacted,
	StageQuoted,
	StageSampled,
	StageScheduled,
	StagePublished,
	StageReviewed,
}

var stageIndex = func() map[Stage]int {
	idx := make(map[Stage]int, len(stageOrder))
	for i, s := range stageOrder {
		idx[s] = i
	}
	return idx
}()

// Stages returns the pipeline stages in order. The slice is a copy.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ParseStage accepts a stage name in any case.
func ParseStage(raw string) (Stage, bool) {
	s := Stage(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := stageIndex[s]
	return s, ok
}

// IsValid reports whether s is one of the seven known stages.
func (s Stage) IsValid() bool {
	_, ok := stageIndex[s]
	return ok
}

// Position returns the zero-based order of s, or -1 for unknown stages.
func (s Stage) Position() int {
	if i, ok := stageIndex[s]; ok {
		return i
	}
	return -1
}

// IsTerminalComplete reports whether the content has gone out, after which
// a deadline can no longer be missed.
func (s Stage) IsTerminalComplete() bool {
	return s == StagePublished || s == StageReviewed
}

// TerminalCompleteStages lists the stages excluded from overdue tracking.
func TerminalCompleteStages() []Stage {
	return []Stage{StagePublished, StageReviewed}
}

// IsClosed reports whether a collaboration in s no longer counts as an active claim.
func (s Stage) IsClosed() bool {
	return s == StageReviewed
}

// TransitionPolicy decides whether a collaboration may move between two stages.
type TransitionPolicy interface {
	Allow(from, to Stage) error
}

// TransitionPolicyFunc adapts a function to TransitionPolicy.
type TransitionPolicyFunc func(from, to Stage) error

func (f TransitionPolicyFunc) Allow(from, to Stage) error { return f(from, to) }

// AnyTransition permits every move, including backwards ones.
var AnyTransition TransitionPolicy = TransitionPolicyFunc(func(Stage, Stage) error { return nil })
