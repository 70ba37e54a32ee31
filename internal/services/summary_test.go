package services

import (
	"testing"

	"horas/internal/core"
	"horas/internal/ledger"
)

func summaryFixture() ([]core.TaskType, *SummaryReporter) {
	catalogue := []core.TaskType{
		{ID: core.TypeTrabajado, Label: "Trabajado", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: core.TypeJira, Label: "Jira", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: core.TypeSinProyecto, Label: "Sin proyecto", Structural: true, ComputesInWeek: true},
		{ID: core.TypeEnfermedad, Label: "Enfermedad", Structural: true, ComputesInWeek: true},
		{ID: core.TypeRecuperado, Label: "Recuperado", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: core.TypePendiente, Label: "Pendiente", ComputesInWeek: true},
		{ID: core.TypeRegularizado, Label: "Regularizado", ComputesInWeek: false, SubtractsFromBudget: true},
		{ID: core.TypePreImputado, Label: "Pre-imputado", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: core.TypeYaImputado, Label: "Ya imputado", ComputesInWeek: false},
	}

	// 2024-W02 (Monday Jan 8) -> January; 2024-W10 (Monday Mar 4) -> March.
	led := ledger.FromRecords([]core.Imputation{
		{ID: "i1", WeekID: "2024-W02", UserID: "u1", TaskID: "t1", Type: core.TypeTrabajado,
			Hours: core.DayHours{Mon: 8, Tue: 8, Wed: 8, Thu: 8, Fri: 8}}, // 40
		{ID: "i2", WeekID: "2024-W02", UserID: "u1", TaskID: "t1", Type: core.TypeJira,
			Hours: core.DayHours{Mon: 8, Tue: 8, Wed: 8, Thu: 8, Fri: 8}}, // 40
		{ID: "i3", WeekID: "2024-W02", UserID: "u1", TaskID: "t2", Type: core.TypeSinProyecto,
			Hours: core.DayHours{Mon: 8, Tue: 8, Wed: 4}}, // 20
		{ID: "i4", WeekID: "2024-W02", UserID: "u1", TaskID: "t1", Type: core.TypePendiente,
			Hours: core.DayHours{Mon: 5}}, // pending +5 in January
		{ID: "i5", WeekID: "2024-W10", UserID: "u1", TaskID: "t1", Type: core.TypeRegularizado,
			Hours: core.DayHours{Mon: 2}}, // pending -2 in March
	})

	return catalogue, NewSummaryReporter(NewAggregator(led))
}

func TestYearSummaryDerivedRows(t *testing.T) {
	catalogue, reporter := summaryFixture()

	summary := reporter.YearSummary(catalogue, SummaryOptions{Year: 2024, UserID: "u1"})
	if len(summary.Derived) != 6 {
		t.Fatalf("got %d derived rows, want 6", len(summary.Derived))
	}
	rows := make(map[string]DerivedRow, len(summary.Derived))
	for _, row := range summary.Derived {
		rows[row.Name] = row
	}

	jan := 0
	// UTESFacturar(Jan) = TRABAJADO 40 + JIRA 40 = 80
	if got := rows[RowUTESFacturar].Months[jan]; got != 80 {
		t.Errorf("UTESFacturar[Jan] = %v, want 80", got)
	}
	// PerdidaFacturacion(Jan) = SIN_PROYECTO 20 - RECUPERADO 0 = 20
	if got := rows[RowPerdidaFacturacion].Months[jan]; got != 20 {
		t.Errorf("PerdidaFacturacion[Jan] = %v, want 20", got)
	}
	// Eficiencia(Jan) = 80 / (80 + 20) * 100 = 80
	if got := rows[RowEficiencia].Months[jan]; got != 80 {
		t.Errorf("Eficiencia[Jan] = %v, want 80", got)
	}
	// Months with no entries at all must report 0, not NaN.
	if got := rows[RowEficiencia].Months[5]; got != 0 {
		t.Errorf("Eficiencia[Jun] = %v, want 0", got)
	}
}

func TestYearSummaryCarryForward(t *testing.T) {
	catalogue, reporter := summaryFixture()
	summary := reporter.YearSummary(catalogue, SummaryOptions{Year: 2024, UserID: "u1"})

	var pendientes DerivedRow
	for _, row := range summary.Derived {
		if row.Name == RowPendientesAcumulado {
			pendientes = row
		}
	}

	// Entries exist in January and March only. February carries January's
	// value forward; March applies the REGULARIZADO delta.
	if pendientes.Months[0] != 5 {
		t.Errorf("PendientesAcumulado[Jan] = %v, want 5", pendientes.Months[0])
	}
	if pendientes.Months[1] != 5 {
		t.Errorf("PendientesAcumulado[Feb] = %v, want carry-forward 5", pendientes.Months[1])
	}
	if pendientes.Months[2] != 3 {
		t.Errorf("PendientesAcumulado[Mar] = %v, want 3", pendientes.Months[2])
	}
	// The annual column of an accumulated row is December's value.
	if pendientes.Total != pendientes.Months[11] {
		t.Errorf("annual total = %v, want December's %v", pendientes.Total, pendientes.Months[11])
	}
	if pendientes.Months[11] != 3 {
		t.Errorf("PendientesAcumulado[Dec] = %v, want 3", pendientes.Months[11])
	}
}

func TestYearSummaryAnnualTotals(t *testing.T) {
	catalogue, reporter := summaryFixture()
	summary := reporter.YearSummary(catalogue, SummaryOptions{Year: 2024, UserID: "u1"})

	rows := make(map[string]DerivedRow)
	for _, row := range summary.Derived {
		rows[row.Name] = row
	}

	// REGULARIZADO feeds UTESFacturar too: 80 (Jan) + 2 (Mar).
	if got := rows[RowUTESFacturar].Total; got != 82 {
		t.Errorf("UTESFacturar total = %v, want 82", got)
	}
	if got := rows[RowPerdidaFacturacion].Total; got != 20 {
		t.Errorf("PerdidaFacturacion total = %v, want 20", got)
	}
	// Annual efficiency is recomputed from the annual sums, not averaged
	// over the monthly percentages (which would give (80 + 100) / 2).
	if got, want := rows[RowEficiencia].Total, 82.0/102.0*100; got != want {
		t.Errorf("Eficiencia total = %v, want %v", got, want)
	}
	// RealmenteTrabajadas(Jan) = 40 + 40; (Mar) = REGULARIZADO 2.
	if got := rows[RowRealmenteTrabajadas].Total; got != 82 {
		t.Errorf("RealmenteTrabajadas total = %v, want 82", got)
	}
}

func TestYearSummaryExcludedTypes(t *testing.T) {
	catalogue, reporter := summaryFixture()

	summary := reporter.YearSummary(catalogue, SummaryOptions{
		Year:     2024,
		UserID:   "u1",
		Excluded: []string{core.TypeJira},
	})
	rows := make(map[string]DerivedRow)
	for _, row := range summary.Derived {
		rows[row.Name] = row
	}
	if got := rows[RowUTESFacturar].Months[0]; got != 40 {
		t.Errorf("UTESFacturar[Jan] with JIRA excluded = %v, want 40", got)
	}

	// The per-type matrix itself is not affected by the toggles.
	for _, row := range summary.Types {
		if row.TypeID == core.TypeJira && row.Months[0] != 40 {
			t.Errorf("type matrix JIRA[Jan] = %v, want 40", row.Months[0])
		}
	}
}

func TestYearSummaryTypeMatrix(t *testing.T) {
	catalogue, reporter := summaryFixture()
	summary := reporter.YearSummary(catalogue, SummaryOptions{Year: 2024, UserID: "u1"})

	if len(summary.Types) != len(catalogue) {
		t.Fatalf("matrix has %d rows, want %d", len(summary.Types), len(catalogue))
	}
	for _, row := range summary.Types {
		if row.TypeID == core.TypeTrabajado {
			if row.Months[0] != 40 || row.Total != 40 {
				t.Errorf("TRABAJADO row = %+v", row)
			}
		}
	}
}

func TestEfficiencyZeroDenominator(t *testing.T) {
	if got := efficiency(0, 0); got != 0 {
		t.Errorf("efficiency(0, 0) = %v, want 0", got)
	}
	if got := efficiency(80, 20); got != 80 {
		t.Errorf("efficiency(80, 20) = %v, want 80", got)
	}
}
