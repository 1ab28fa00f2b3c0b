package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/salesdw/internal/logging"
)

// NamedStep pairs a Step with the name used in logs and reports.
type NamedStep struct {
	Name string
	Run  Step
}

// DefaultSteps is the fixed cleaning order. Missing values are handled
// before the range filters so imputed defaults take part in them, and
// standardization runs after imputation so it never sees a filled null.
var DefaultSteps = []NamedStep{
	{Name: "deduplicate", Run: Deduplicate},
	{Name: "handle_missing", Run: HandleMissing},
	{Name: "remove_outliers", Run: RemoveOutliers},
	{Name: "standardize_formats", Run: StandardizeFormats},
	{Name: "validate", Run: Validate},
}

// Pipeline runs an ordered list of steps for one entity.
type Pipeline struct {
	def   TableDefinition
	steps []NamedStep
}

// NewPipeline creates a pipeline running DefaultSteps for def.
func NewPipeline(def TableDefinition) *Pipeline {
	return &Pipeline{def: def, steps: DefaultSteps}
}

// WithSteps returns a copy of the pipeline running the given steps instead.
func (p *Pipeline) WithSteps(steps ...NamedStep) *Pipeline {
	return &Pipeline{def: p.def, steps: steps}
}

// Report contains the outcome of a pipeline run.
type Report struct {
	TableKey string
	Input    int
	Output   int
	Steps    []StepReport
	Duration time.Duration
}

// Removed returns the total number of rows dropped across all steps.
func (r *Report) Removed() int {
	return r.Input - r.Output
}

// Run passes t through every step in order and returns the cleaned table.
// t is not modified. It fails before the first step if t lacks a Required
// or Key column.
func (p *Pipeline) Run(ctx context.Context, t *Table) (*Table, *Report, error) {
	logger := logging.WithFields(ctx, "table", p.def.Info.Key)
	start := time.Now()

	if missing := MissingColumns(t, p.def.FieldSpecs); len(missing) > 0 {
		return nil, nil, fmt.Errorf("table %s: missing required columns: %s", p.def.Info.Key, strings.Join(missing, ", "))
	}

	rep := &Report{TableKey: p.def.Info.Key, Input: t.Len()}
	cur := t
	for _, step := range p.steps {
		logger.Info("FUNCTION START", "step", step.Name, "rows", cur.Len())

		var sr StepReport
		cur, sr = step.Run(cur, p.def)
		sr.Step = step.Name
		rep.Steps = append(rep.Steps, sr)

		args := []any{"step", step.Name, "before", sr.Before, "after", sr.After}
		for _, k := range sortedKeys(sr.Detail) {
			args = append(args, k, sr.Detail[k])
		}
		if step.Name == "validate" && sr.Removed() > 0 {
			logger.Warn("rows failed validation", args...)
		} else {
			logger.Info("step complete", args...)
		}
	}

	rep.Output = cur.Len()
	rep.Duration = time.Since(start)
	return cur, rep, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
