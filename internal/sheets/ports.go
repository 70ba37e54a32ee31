package sheets

import (
	"context"

	"horas/internal/core"
	"horas/internal/services"
)

// Ports for outbound adapters.
type (
	// ImputationWriter mirrors one imputation row into the external sheet.
	// Append replaces any row already carrying the same id.
	ImputationWriter interface {
		Append(ctx context.Context, imp core.Imputation) (rowRef string, err error)
	}

	// ImputationDeleter clears the mirrored row of a deleted imputation.
	ImputationDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	// SummaryWriter publishes the yearly report matrix.
	SummaryWriter interface {
		WriteYearSummary(ctx context.Context, summary services.YearSummary) error
	}
)
