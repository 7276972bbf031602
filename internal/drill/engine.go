// Package drill runs consistency experiments against a live ledger: a steady-state check,
// a fault-like workload, a rollback and assertions over what was observed.
package drill

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrSteadyStateInvalid aborts an experiment before its method runs.
var ErrSteadyStateInvalid = errors.New("steady state invalid")

// Experiment defines one drill.
type Experiment struct {
	Name        string
	Hypothesis  string
	SteadyState []Metric
	Method      []Action
	Rollback    []Action
	// Observe is sampled once after the method ran.
	Observe    []Metric
	Validation []Assertion
}

// Metric is a measurable ledger property.
type Metric struct {
	Name      string
	Query     func(ctx context.Context) (float64, error)
	Threshold Threshold
}

// Threshold bounds a steady-state metric.
type Threshold struct {
	Operator string // >, <, >=, <=, ==
	Value    float64
}

// Action is a workload or cleanup step.
type Action struct {
	Type    string
	Target  string
	Execute func(ctx context.Context) error
}

// Assertion validates one observed metric.
type Assertion struct {
	Metric    string
	Condition func(float64) bool
	Message   string
}

// Result captures one experiment run.
type Result struct {
	ExperimentName   string             `json:"experiment_name"`
	StartTime        time.Time          `json:"start_time"`
	EndTime          time.Time          `json:"end_time"`
	Duration         time.Duration      `json:"duration"`
	HypothesisHeld   bool               `json:"hypothesis_held"`
	SteadyStateValid bool               `json:"steady_state_valid"`
	Violations       []Violation        `json:"violations"`
	Observations     map[string]float64 `json:"observations"`
	ErrorEvents      []ErrorEvent       `json:"error_events"`
	FailedAssertions []string           `json:"failed_assertions,omitempty"`
}

// Violation is a steady-state metric outside its threshold.
type Violation struct {
	MetricName string  `json:"metric_name"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
}

// ErrorEvent records a failed action or metric query.
type ErrorEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
	Component string    `json:"component"`
}

// Engine orchestrates experiments.
type Engine struct {
	tracer      trace.Tracer
	log         *zap.SugaredLogger
	mu          sync.Mutex
	experiments []Experiment
	results     []Result
}

// NewEngine creates an engine with no experiments.
func NewEngine(log *zap.SugaredLogger) *Engine {
	return &Engine{
		tracer: otel.Tracer("libraryledger/drill"),
		log:    log.Named("drill"),
	}
}

// Register adds an experiment to the suite.
func (e *Engine) Register(exp Experiment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.experiments = append(e.experiments, exp)
}

// Experiments returns the registered experiments.
func (e *Engine) Experiments() []Experiment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Experiment(nil), e.experiments...)
}

// Results returns every result recorded so far.
func (e *Engine) Results() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Result(nil), e.results...)
}

// Run executes a single experiment. Rollback actions run whenever the method started.
func (e *Engine) Run(ctx context.Context, exp Experiment) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "drill.run",
		trace.WithAttributes(attribute.String("experiment.name", exp.Name)),
	)
	defer span.End()

	result := &Result{
		ExperimentName: exp.Name,
		StartTime:      time.Now(),
		Observations:   make(map[string]float64),
		ErrorEvents:    make([]ErrorEvent, 0),
	}

	span.AddEvent("validating_steady_state")
	if violations := e.steadyState(ctx, exp.SteadyState); len(violations) > 0 {
		result.Violations = violations
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		span.SetStatus(codes.Error, ErrSteadyStateInvalid.Error())
		return result, ErrSteadyStateInvalid
	}
	result.SteadyStateValid = true

	span.AddEvent("running_method")
	e.execute(ctx, span, exp.Method, result)

	span.AddEvent("observing")
	for _, m := range exp.Observe {
		v, err := m.Query(ctx)
		if err != nil {
			result.ErrorEvents = append(result.ErrorEvents, ErrorEvent{Timestamp: time.Now(), Error: err.Error(), Component: m.Name})
			continue
		}
		result.Observations[m.Name] = v
	}

	span.AddEvent("rolling_back")
	e.execute(ctx, span, exp.Rollback, result)

	span.AddEvent("validating_assertions")
	result.FailedAssertions = validate(exp.Validation, result.Observations)
	result.HypothesisHeld = len(result.FailedAssertions) == 0
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	e.mu.Lock()
	e.results = append(e.results, *result)
	e.mu.Unlock()

	span.SetAttributes(
		attribute.Bool("hypothesis_held", result.HypothesisHeld),
		attribute.Int("errors", len(result.ErrorEvents)),
	)
	if result.HypothesisHeld {
		e.log.Infow("experiment passed", "experiment", exp.Name, "duration", result.Duration)
	} else {
		span.SetStatus(codes.Error, "hypothesis violated")
		e.log.Warnw("experiment failed", "experiment", exp.Name, "failed", result.FailedAssertions,
			"observations", result.Observations)
	}
	return result, nil
}

// RunAll executes every registered experiment in order and reports whether all hypotheses held.
func (e *Engine) RunAll(ctx context.Context) ([]Result, bool) {
	ctx, span := e.tracer.Start(ctx, "drill.run_all")
	defer span.End()

	allHeld := true
	var out []Result
	for _, exp := range e.Experiments() {
		res, err := e.Run(ctx, exp)
		if err != nil {
			e.log.Errorw("experiment aborted", "experiment", exp.Name, "error", err)
		}
		if res != nil {
			out = append(out, *res)
			allHeld = allHeld && res.HypothesisHeld
		}
		if ctx.Err() != nil {
			break
		}
	}
	span.SetAttributes(attribute.Bool("all_held", allHeld))
	return out, allHeld
}

func (e *Engine) execute(ctx context.Context, span trace.Span, actions []Action, result *Result) {
	for _, a := range actions {
		if err := a.Execute(ctx); err != nil {
			result.ErrorEvents = append(result.ErrorEvents, ErrorEvent{Timestamp: time.Now(), Error: err.Error(), Component: a.Target})
			span.RecordError(err)
		}
	}
}

func (e *Engine) steadyState(ctx context.Context, metrics []Metric) []Violation {
	var violations []Violation
	for _, m := range metrics {
		v, err := m.Query(ctx)
		if err != nil {
			violations = append(violations, Violation{MetricName: m.Name, Expected: m.Threshold.Value, Actual: -1})
			continue
		}
		if !m.Threshold.holds(v) {
			violations = append(violations, Violation{MetricName: m.Name, Expected: m.Threshold.Value, Actual: v})
		}
	}
	return violations
}

func (t Threshold) holds(v float64) bool {
	switch t.Operator {
	case ">":
		return v > t.Value
	case "<":
		return v < t.Value
	case ">=":
		return v >= t.Value
	case "<=":
		return v <= t.Value
	case "==":
		return v == t.Value
	default:
		return false
	}
}

func validate(assertions []Assertion, observed map[string]float64) []string {
	var failed []string
	for _, a := range assertions {
		v, ok := observed[a.Metric]
		if !ok || !a.Condition(v) {
			failed = append(failed, a.Message)
		}
	}
	return failed
}
