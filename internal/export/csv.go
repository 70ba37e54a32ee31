// Package export renders catalogue and report data to interchange
// formats: semicolon-delimited CSV for the type catalogue and XLSX
// workbooks for the yearly report.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"horas/internal/core"
)

// csvHeader is the canonical column order of a task type CSV.
var csvHeader = []string{"id", "label", "color", "structural", "computesInWeek", "subtractsFromBudget"}

// WriteTaskTypesCSV writes the catalogue as semicolon-delimited CSV with
// a header row. The label column is always quoted, matching the files
// the legacy importer produces and consumes; the other columns never
// contain delimiters.
func WriteTaskTypesCSV(w io.Writer, types []core.TaskType) error {
	if _, err := fmt.Fprintln(w, strings.Join(csvHeader, ";")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range types {
		record := strings.Join([]string{
			t.ID,
			quoteLabel(t.Label),
			t.Color,
			strconv.FormatBool(t.Structural),
			strconv.FormatBool(t.ComputesInWeek),
			strconv.FormatBool(t.SubtractsFromBudget),
		}, ";")
		if _, err := fmt.Fprintln(w, record); err != nil {
			return fmt.Errorf("write record %s: %w", t.ID, err)
		}
	}
	return nil
}

// quoteLabel wraps the label in double quotes, doubling embedded quotes
// per CSV rules.
func quoteLabel(label string) string {
	return `"` + strings.ReplaceAll(label, `"`, `""`) + `"`
}

// ReadTaskTypesCSV parses a catalogue CSV. The header row names the
// columns, so column order is free and the flag columns may be absent;
// absent computesInWeek and subtractsFromBudget parse as true, matching
// records that predate both flags.
func ReadTaskTypesCSV(r io.Reader) ([]core.TaskType, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &core.ValidationError{Field: "file", Reason: "empty file"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["id"]; !ok {
		return nil, &core.ValidationError{Field: "header", Reason: "missing id column"}
	}
	if _, ok := col["label"]; !ok {
		return nil, &core.ValidationError{Field: "header", Reason: "missing label column"}
	}

	field := func(record []string, name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	var out []core.TaskType
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		var t core.TaskType
		t.ID, _ = field(record, "id")
		t.Label, _ = field(record, "label")
		t.Color, _ = field(record, "color")

		if t.Structural, err = parseFlag(record, field, "structural", false); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if t.ComputesInWeek, err = parseFlag(record, field, "computesInWeek", true); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if t.SubtractsFromBudget, err = parseFlag(record, field, "subtractsFromBudget", true); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseFlag(record []string, field func([]string, string) (string, bool), name string, absent bool) (bool, error) {
	v, ok := field(record, name)
	if !ok || v == "" {
		return absent, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &core.ValidationError{Field: name, Reason: fmt.Sprintf("not a boolean: %q", v)}
	}
	return b, nil
}
