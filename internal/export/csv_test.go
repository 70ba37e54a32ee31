package export

import (
	"bytes"
	"strings"
	"testing"

	"horas/internal/core"
)

func TestWriteTaskTypesCSV(t *testing.T) {
	types := []core.TaskType{
		{ID: "TRABAJADO", Label: "Trabajado", Color: "#4caf50", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: "YA_IMPUTADO", Label: "Ya imputado", Color: "#673ab7"},
	}

	var buf bytes.Buffer
	if err := WriteTaskTypesCSV(&buf, types); err != nil {
		t.Fatalf("WriteTaskTypesCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if lines[0] != "id;label;color;structural;computesInWeek;subtractsFromBudget" {
		t.Errorf("header = %q", lines[0])
	}
	// The label is always quoted, as the legacy files have it.
	if lines[1] != `TRABAJADO;"Trabajado";#4caf50;false;true;true` {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != `YA_IMPUTADO;"Ya imputado";#673ab7;false;false;false` {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestWriteTaskTypesCSVQuotesInLabel(t *testing.T) {
	types := []core.TaskType{
		{ID: "GUARDIA", Label: `Guardia "on call"; nocturna`, Color: "#111111"},
	}

	var buf bytes.Buffer
	if err := WriteTaskTypesCSV(&buf, types); err != nil {
		t.Fatalf("WriteTaskTypesCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[1] != `GUARDIA;"Guardia ""on call""; nocturna";#111111;false;false;false` {
		t.Errorf("row = %q", lines[1])
	}

	got, err := ReadTaskTypesCSV(&buf)
	if err != nil {
		t.Fatalf("ReadTaskTypesCSV: %v", err)
	}
	if got[0].Label != types[0].Label {
		t.Errorf("label = %q, want %q", got[0].Label, types[0].Label)
	}
}

func TestReadTaskTypesCSV(t *testing.T) {
	in := strings.Join([]string{
		"id;label;color;structural;computesInWeek;subtractsFromBudget",
		"TRABAJADO;Trabajado;#4caf50;false;true;true",
		"YA_IMPUTADO;Ya imputado;#673ab7;false;false;false",
	}, "\n")

	types, err := ReadTaskTypesCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadTaskTypesCSV: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("got %d types, want 2", len(types))
	}
	if !types[0].ComputesInWeek || !types[0].SubtractsFromBudget {
		t.Errorf("TRABAJADO flags = %+v", types[0])
	}
	if types[1].ComputesInWeek || types[1].SubtractsFromBudget {
		t.Errorf("YA_IMPUTADO flags = %+v", types[1])
	}
}

func TestReadTaskTypesCSVLegacyColumns(t *testing.T) {
	// Files from before the flag columns existed carry only id/label/color.
	in := "id;label;color\nTRABAJADO;Trabajado;#4caf50\n"

	types, err := ReadTaskTypesCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadTaskTypesCSV: %v", err)
	}
	if len(types) != 1 {
		t.Fatalf("got %d types, want 1", len(types))
	}
	if !types[0].ComputesInWeek || !types[0].SubtractsFromBudget {
		t.Errorf("absent flag columns should default true, got %+v", types[0])
	}
	if types[0].Structural {
		t.Error("absent structural column should default false")
	}
}

func TestReadTaskTypesCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty file", ""},
		{"missing id column", "label;color\nTrabajado;#fff\n"},
		{"missing label column", "id;color\nTRABAJADO;#fff\n"},
		{"bad boolean", "id;label;computesInWeek\nTRABAJADO;Trabajado;maybe\n"},
		{"blank label", "id;label\nTRABAJADO;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadTaskTypesCSV(strings.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTaskTypesCSVRoundTrip(t *testing.T) {
	types := []core.TaskType{
		{ID: "PENDIENTE", Label: "Pendiente de regularizar", Color: "#ffc107", ComputesInWeek: true},
		{ID: "VACACIONES", Label: "Vacaciones", Color: "#ff9800", Structural: true, ComputesInWeek: true},
	}

	var buf bytes.Buffer
	if err := WriteTaskTypesCSV(&buf, types); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadTaskTypesCSV(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(types) {
		t.Fatalf("got %d types, want %d", len(got), len(types))
	}
	for i := range types {
		if got[i] != types[i] {
			t.Errorf("type %d = %+v, want %+v", i, got[i], types[i])
		}
	}
}
