package risk

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Scoring policy. The high and medium rules only add reasons to escalate, so
// the derived level is monotonic in the signals: more locations, sessions, or
// failures can never lower it.
const riskRegoPolicy = `package sessionguard.risk

default high = false
default medium = false

high if {
	input.signals.distinct_locations >= input.thresholds.high_locations
}

high if {
	input.signals.suspicious_count >= 1
}

medium if {
	input.signals.distinct_locations >= input.thresholds.medium_locations
}

medium if {
	input.signals.concurrent_count > input.thresholds.max_concurrent
}

medium if {
	input.signals.failure_count >= input.thresholds.failure_burst
}

level = "high" if {
	high
}

level = "medium" if {
	not high
	medium
}

level = "low" if {
	not high
	not medium
}
`

// OPAEvaluator evaluates the risk scoring policy using OPA Rego.
type OPAEvaluator struct{}

// NewOPAEvaluator returns an OPA-based risk evaluator.
func NewOPAEvaluator() *OPAEvaluator {
	return &OPAEvaluator{}
}

// HealthCheck verifies that the in-process OPA Rego engine can compile and
// evaluate the scoring policy. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.Evaluate(ctx, Signals{}, Thresholds{
		HighLocations:   3,
		MediumLocations: 2,
		MaxConcurrent:   5,
		FailureBurst:    3,
	})
	return err
}

// Evaluate scores the given signals against the thresholds.
func (e *OPAEvaluator) Evaluate(ctx context.Context, sig Signals, th Thresholds) (Result, error) {
	modules := map[string]string{"risk.rego": riskRegoPolicy}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return Result{}, fmt.Errorf("compile risk policy: %w", err)
	}

	input := map[string]interface{}{
		"signals": map[string]interface{}{
			"distinct_locations": sig.DistinctLocations,
			"concurrent_count":   sig.ConcurrentCount,
			"failure_count":      sig.FailureCount,
			"suspicious_count":   sig.SuspiciousCount,
		},
		"thresholds": map[string]interface{}{
			"high_locations":   th.HighLocations,
			"medium_locations": th.MediumLocations,
			"max_concurrent":   th.MaxConcurrent,
			"failure_burst":    th.FailureBurst,
		},
	}

	q := rego.New(
		rego.Query("data.sessionguard.risk.level"),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("eval risk policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Result{}, fmt.Errorf("risk query returned no result")
	}
	level, ok := rs[0].Expressions[0].Value.(string)
	if !ok {
		return Result{}, fmt.Errorf("risk query returned non-string level")
	}
	return Result{Level: level}, nil
}
