package core

// steps.go holds the cleaning steps run by Pipeline.
//
// Every step has the Step signature: it reads the input table and the
// entity's TableDefinition and returns a new table plus a StepReport.
// Inputs are never modified. Columns named by a FieldSpec but absent from
// the table are skipped, except Key columns: a table without its key keeps
// no rows.

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IQRMultiplier is the fence width used by RemoveOutliers for IQR columns.
const IQRMultiplier = 1.5

// Step is one table transformation in a cleaning pipeline.
type Step func(t *Table, def TableDefinition) (*Table, StepReport)

// StepReport describes what a step did.
type StepReport struct {
	Step   string
	Before int            // rows in
	After  int            // rows out
	Detail map[string]int // step specific counters
}

// Removed returns the number of rows the step dropped.
func (r StepReport) Removed() int {
	return r.Before - r.After
}

func newReport(step string, before int) StepReport {
	return StepReport{Step: step, Before: before, Detail: make(map[string]int)}
}

// Deduplicate drops rows that are exact duplicates across all columns,
// keeping the first occurrence.
func Deduplicate(t *Table, _ TableDefinition) (*Table, StepReport) {
	rep := newReport("deduplicate", t.Len())

	seen := make(map[string]struct{}, t.Len())
	out := t.Filter(func(row []pgtype.Text) bool {
		k := rowKey(row)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})

	rep.After = out.Len()
	rep.Detail["duplicates"] = rep.Removed()
	return out, rep
}

// rowKey encodes a row so that null and "" never collide.
func rowKey(row []pgtype.Text) string {
	var b strings.Builder
	for _, c := range row {
		if c.Valid {
			b.WriteByte('v')
			b.WriteString(strconv.Itoa(len(c.String)))
			b.WriteByte(':')
			b.WriteString(c.String)
		} else {
			b.WriteByte('n')
		}
	}
	return b.String()
}

// HandleMissing applies each column's MissingPolicy.
//
// Non-null cells of numeric columns that do not parse are nulled first.
// Medians are then computed over the incoming table, before any row is
// dropped. Rows with a null key or MissingDrop column are removed, and the
// remaining nulls are filled with defaults or medians. An absent Key column
// removes every row.
func HandleMissing(t *Table, def TableDefinition) (*Table, StepReport) {
	rep := newReport("handle_missing", t.Len())
	work := t.Clone()

	if absentKey(work, def) {
		rep.Detail["missing_key_column"] = 1
		rep.Detail["dropped"] = work.Len()
		return NewTable(work.Columns), rep
	}

	for _, spec := range def.FieldSpecs {
		idx := work.ColumnIndex(spec.Name)
		if idx < 0 || !spec.Type.IsNumeric() {
			continue
		}
		for _, row := range work.Rows {
			if row[idx].Valid {
				if !ParsesAs(row[idx].String, spec.Type) {
					row[idx] = pgtype.Text{Valid: false}
					rep.Detail["coerced"]++
				}
			}
		}
	}

	rep.Detail["nulls_before"] = sumCounts(work.NullCounts())

	fills := make(map[int]pgtype.Text)
	var drops []int
	for _, spec := range def.FieldSpecs {
		idx := work.ColumnIndex(spec.Name)
		if idx < 0 {
			continue
		}
		switch {
		case spec.Key || spec.Missing == MissingDrop:
			drops = append(drops, idx)
		case spec.Missing == MissingDefault:
			fills[idx] = pgtype.Text{String: spec.Default, Valid: true}
		case spec.Missing == MissingMedian:
			values := numericValues(work, idx)
			if len(values) > 0 {
				fills[idx] = pgtype.Text{String: FormatNumber(Median(values), spec.Type), Valid: true}
			}
		}
	}

	out := work.Filter(func(row []pgtype.Text) bool {
		for _, idx := range drops {
			if !row[idx].Valid {
				return false
			}
		}
		return true
	})
	rep.Detail["dropped"] = work.Len() - out.Len()

	for _, row := range out.Rows {
		for idx, v := range fills {
			if !row[idx].Valid {
				row[idx] = v
				rep.Detail["filled"]++
			}
		}
	}

	rep.Detail["nulls_after"] = sumCounts(out.NullCounts())
	rep.After = out.Len()
	return out, rep
}

// RemoveOutliers keeps rows inside each column's fixed Outlier bounds and
// inside the IQR fence of IQR columns. Fixed bounds treat null as failing.
// The IQR fence is computed on the incoming table, lets nulls through and
// is skipped when the column has no values.
func RemoveOutliers(t *Table, def TableDefinition) (*Table, StepReport) {
	rep := newReport("remove_outliers", t.Len())

	type check struct {
		name  string
		idx   int
		b     Bounds
		nulls bool // null passes
	}
	var checks []check
	for _, spec := range def.FieldSpecs {
		idx := t.ColumnIndex(spec.Name)
		if idx < 0 {
			continue
		}
		if spec.Outlier != nil {
			checks = append(checks, check{name: spec.Name, idx: idx, b: *spec.Outlier})
		}
		if spec.IQR {
			if fence, ok := IQRFence(numericValues(t, idx), IQRMultiplier); ok {
				checks = append(checks, check{name: spec.Name, idx: idx, b: fence, nulls: true})
			}
		}
	}

	out := t.Filter(func(row []pgtype.Text) bool {
		for _, c := range checks {
			f, ok := ParseCell(row[c.idx])
			if !ok {
				if c.nulls {
					continue
				}
				rep.Detail[c.name]++
				return false
			}
			if !c.b.Contains(f) {
				rep.Detail[c.name]++
				return false
			}
		}
		return true
	})

	rep.After = out.Len()
	return out, rep
}

// StandardizeFormats normalizes case, rounding and dates. Integer columns
// are written as exact integers and real columns in shortest form. A value
// that is not a whole number in int64 range becomes null in an integer
// column. Date columns
// are rewritten as YYYY-MM-DD, and unparseable dates become null. Null cells
// are left alone.
func StandardizeFormats(t *Table, def TableDefinition) (*Table, StepReport) {
	rep := newReport("standardize_formats", t.Len())
	out := t.Clone()

	title := cases.Title(language.Und)
	lower := cases.Lower(language.Und)

	for _, spec := range def.FieldSpecs {
		idx := out.ColumnIndex(spec.Name)
		if idx < 0 {
			continue
		}
		for _, row := range out.Rows {
			c := row[idx]
			if !c.Valid {
				continue
			}
			var next pgtype.Text
			switch spec.Type {
			case FieldText:
				next = c
				switch spec.Case {
				case CaseTitle:
					next.String = title.String(c.String)
				case CaseLower:
					next.String = lower.String(c.String)
				}
			case FieldInteger:
				i, ok := ParseInteger(c.String)
				if !ok {
					rep.Detail["nulled"]++
					row[idx] = pgtype.Text{Valid: false}
					continue
				}
				next = pgtype.Text{String: strconv.FormatInt(i, 10), Valid: true}
			case FieldReal:
				f, ok := ParseNumber(c.String)
				if !ok {
					rep.Detail["nulled"]++
					row[idx] = pgtype.Text{Valid: false}
					continue
				}
				if spec.Round > 0 {
					f = RoundTo(f, spec.Round)
				}
				next = pgtype.Text{String: FormatReal(f), Valid: true}
			case FieldDate:
				next = FormatDate(ToPgDate(c.String))
				if !next.Valid {
					rep.Detail["nulled"]++
				}
			}
			if next != c {
				rep.Detail["changed"]++
			}
			row[idx] = next
		}
	}

	rep.After = out.Len()
	return out, rep
}

// Validate enforces business rules. Rows outside a column's Rule range are
// dropped, and a null fails the rule. Rows repeating an earlier key are then
// dropped, keeping the first. Failures are counted, never raised. An absent
// Key column removes every row.
func Validate(t *Table, def TableDefinition) (*Table, StepReport) {
	rep := newReport("validate", t.Len())

	if absentKey(t, def) {
		rep.Detail["missing_key_column"] = 1
		return NewTable(t.Columns), rep
	}

	type rule struct {
		name string
		idx  int
		b    Bounds
	}
	var rules []rule
	var keys []int
	for _, spec := range def.FieldSpecs {
		idx := t.ColumnIndex(spec.Name)
		if idx < 0 {
			continue
		}
		if spec.Rule != nil {
			rules = append(rules, rule{name: spec.Name, idx: idx, b: *spec.Rule})
		}
		if spec.Key {
			keys = append(keys, idx)
		}
	}

	seen := make(map[string]struct{}, t.Len())
	out := t.Filter(func(row []pgtype.Text) bool {
		for _, r := range rules {
			f, ok := ParseCell(row[r.idx])
			if !ok || !r.b.Contains(f) {
				rep.Detail[r.name]++
				return false
			}
		}
		if len(keys) == 0 {
			return true
		}
		key := make([]pgtype.Text, len(keys))
		for i, idx := range keys {
			key[i] = row[idx]
		}
		k := rowKey(key)
		if _, dup := seen[k]; dup {
			rep.Detail["duplicate_key"]++
			return false
		}
		seen[k] = struct{}{}
		return true
	})

	rep.After = out.Len()
	return out, rep
}

// absentKey reports whether a Key column of def is missing from t.
func absentKey(t *Table, def TableDefinition) bool {
	for _, spec := range def.FieldSpecs {
		if spec.Key && !t.HasColumn(spec.Name) {
			return true
		}
	}
	return false
}

func sumCounts(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
