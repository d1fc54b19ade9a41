package rollupservice

import "context"

// Service is the rollup module's public surface.
type Service interface {
	// RunRollup aggregates the most recent complete period and persists the
	// rollup row. Re-running a period overwrites it with identical data.
	RunRollup(ctx context.Context, period Period) (*RollupView, error)

	// ExportWorkbook writes the newest rollups for a period to an XLSX
	// workbook in the configured export directory and returns its path.
	// With no directory configured it is a no-op returning "".
	ExportWorkbook(ctx context.Context, period Period) (string, error)
}
