package risk

import "context"

// Risk levels, ordered low to high. Scoring only ever escalates: adding signals
// can raise the level, never lower it.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Signals are the observed facts about a user's current session population that
// the scoring policy evaluates. All counts are over active sessions except
// FailureCount and SuspiciousCount, which come from the recent event log.
type Signals struct {
	DistinctLocations int
	ConcurrentCount   int
	FailureCount      int
	SuspiciousCount   int
}

// Thresholds parameterize the scoring policy. They come from configuration so
// the same signals always yield the same level for a given deployment.
type Thresholds struct {
	HighLocations   int // distinct locations at or above which risk is high
	MediumLocations int // distinct locations at or above which risk is at least medium
	MaxConcurrent   int // concurrent sessions above which risk is at least medium
	FailureBurst    int // recent failures at or above which risk is at least medium
}

// Result is the outcome of one evaluation.
type Result struct {
	Level string
}

// Evaluator scores a user's session population. Implementations must be
// deterministic for a given Signals and Thresholds pair.
type Evaluator interface {
	Evaluate(ctx context.Context, sig Signals, th Thresholds) (Result, error)
}
