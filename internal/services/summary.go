package services

import (
	"sort"

	"horas/internal/core"
)

// Names of the derived summary rows, in presentation order.
const (
	RowUTESFacturar         = "UTES a facturar"
	RowPerdidaFacturacion   = "Pérdida de facturación"
	RowEficiencia           = "Eficiencia (%)"
	RowPendientesAcumulado  = "Pendientes acumulado"
	RowPreimputadoAcumulado = "Pre-imputado acumulado"
	RowRealmenteTrabajadas  = "Realmente trabajadas"
)

type (
	// TypeMonthRow is one task type's hours across the twelve months.
	TypeMonthRow struct {
		TypeID string      `json:"typeId"`
		Label  string      `json:"label"`
		Months [12]float64 `json:"months"`
		Total  float64     `json:"total"`
	}

	// DerivedRow is one computed summary row. For the two accumulated
	// rows Total carries December's running value, not a sum.
	DerivedRow struct {
		Name   string      `json:"name"`
		Months [12]float64 `json:"months"`
		Total  float64     `json:"total"`
	}

	// YearSummary is the annual roll-up: the per-type matrix plus the six
	// derived rows.
	YearSummary struct {
		Year    int            `json:"year"`
		UserID  string         `json:"userId,omitempty"`
		Seg     string         `json:"seg"`
		Types   []TypeMonthRow `json:"types"`
		Derived []DerivedRow   `json:"derived"`
	}

	// SummaryOptions selects the reporting scope. Excluded lists type ids
	// toggled out of the derived sums; the per-type matrix always shows
	// every type.
	SummaryOptions struct {
		Year     int
		UserID   string
		Seg      SegFilter
		Excluded []string
	}
)

// SummaryReporter builds the monthly/annual roll-up from the aggregator.
type SummaryReporter struct {
	agg *Aggregator
}

func NewSummaryReporter(agg *Aggregator) *SummaryReporter {
	return &SummaryReporter{agg: agg}
}

// YearSummary computes the twelve-month matrix for every catalogue type
// and the six derived rows of the annual report.
func (r *SummaryReporter) YearSummary(types []core.TaskType, opts SummaryOptions) YearSummary {
	monthly := r.agg.MonthTotals(opts.Year, opts.UserID, opts.Seg)

	excluded := make(map[string]bool, len(opts.Excluded))
	for _, id := range opts.Excluded {
		excluded[id] = true
	}
	// sum adds up the given types' hours in month i, honoring the toggles.
	sum := func(i int, ids ...string) float64 {
		var total float64
		for _, id := range ids {
			if !excluded[id] {
				total += monthly[i][id]
			}
		}
		return total
	}

	summary := YearSummary{Year: opts.Year, UserID: opts.UserID, Seg: opts.Seg.String()}

	sorted := append([]core.TaskType(nil), types...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Label < sorted[b].Label })
	for _, t := range sorted {
		row := TypeMonthRow{TypeID: t.ID, Label: t.Label}
		for i := 0; i < 12; i++ {
			row.Months[i] = monthly[i][t.ID]
			row.Total += monthly[i][t.ID]
		}
		summary.Types = append(summary.Types, row)
	}

	facturar := DerivedRow{Name: RowUTESFacturar}
	perdida := DerivedRow{Name: RowPerdidaFacturacion}
	eficiencia := DerivedRow{Name: RowEficiencia}
	pendientes := DerivedRow{Name: RowPendientesAcumulado}
	preimputado := DerivedRow{Name: RowPreimputadoAcumulado}
	trabajadas := DerivedRow{Name: RowRealmenteTrabajadas}

	for i := 0; i < 12; i++ {
		facturar.Months[i] = sum(i, core.TypeTrabajado, core.TypeJira, core.TypePreImputado,
			core.TypeRegularizado, core.TypeRecuperado)
		perdida.Months[i] = sum(i, core.TypeSinProyecto, core.TypeEnfermedad) - sum(i, core.TypeRecuperado)
		eficiencia.Months[i] = efficiency(facturar.Months[i], perdida.Months[i])

		delta := sum(i, core.TypePendiente) - sum(i, core.TypeRegularizado)
		if i == 0 {
			pendientes.Months[i] = delta
		} else {
			pendientes.Months[i] = pendientes.Months[i-1] + delta
		}
		preDelta := sum(i, core.TypePreImputado) - sum(i, core.TypeYaImputado)
		if i == 0 {
			preimputado.Months[i] = preDelta
		} else {
			preimputado.Months[i] = preimputado.Months[i-1] + preDelta
		}

		trabajadas.Months[i] = sum(i, core.TypeTrabajado, core.TypeJira, core.TypeRegularizado,
			core.TypeRecuperado, core.TypeYaImputado)

		facturar.Total += facturar.Months[i]
		perdida.Total += perdida.Months[i]
		trabajadas.Total += trabajadas.Months[i]
	}

	// The annual efficiency is recomputed from the annual sums, not
	// averaged over the monthly percentages. The accumulated rows report
	// December's final value.
	eficiencia.Total = efficiency(facturar.Total, perdida.Total)
	pendientes.Total = pendientes.Months[11]
	preimputado.Total = preimputado.Months[11]

	summary.Derived = []DerivedRow{facturar, perdida, eficiencia, pendientes, preimputado, trabajadas}
	return summary
}

// efficiency is UTESFacturar over total accountable hours as a
// percentage, defined as 0 when the denominator is 0.
func efficiency(facturar, perdida float64) float64 {
	denom := facturar + perdida
	if denom == 0 {
		return 0
	}
	return facturar / denom * 100
}
