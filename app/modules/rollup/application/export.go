package rollupservice

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

// ExportWorkbook writes the newest rollups for a period to an XLSX workbook.
func (s *RollupService) ExportWorkbook(ctx context.Context, period Period) (string, error) {
	return withTelemetry(s, ctx, "ExportWorkbook", func(ctx context.Context) (string, error) {
		if s.cfg.ExportDir == "" {
			return "", nil
		}
		if _, err := ParsePeriod(string(period)); err != nil {
			return "", err
		}

		rollups, err := s.repo.ListRecent(ctx, s.db, string(period), s.cfg.ExportRows)
		if err != nil {
			return "", err
		}

		f := excelize.NewFile()
		defer f.Close()

		const sheet = "Rollups"
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return "", fmt.Errorf("failed to name sheet: %w", err)
		}

		header := []any{"Period Start", "Period End", "Contributions", "Points", "Active Users", "By Type"}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}

		for i, r := range rollups {
			row := []any{
				r.PeriodStart.Format("2006-01-02"),
				r.PeriodEnd.Format("2006-01-02"),
				r.TotalContributions,
				r.TotalPoints,
				r.ActiveUsers,
				formatByType(r.ByType),
			}
			cell := fmt.Sprintf("A%d", i+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}

		name := fmt.Sprintf("rollups-%s-%s.xlsx", period, s.now().UTC().Format("2006-01-02"))
		path := filepath.Join(s.cfg.ExportDir, name)
		if err := f.SaveAs(path); err != nil {
			return "", fmt.Errorf("failed to save workbook: %w", err)
		}

		s.logger.InfoContext(ctx, "Rollup workbook exported",
			attr.String("period", string(period)),
			attr.String("path", path),
			attr.Int("rows", len(rollups)),
		)
		return path, nil
	})
}

// formatByType renders the per-type counts as a stable "name=count" list.
func formatByType(byType map[string]int64) string {
	if len(byType) == 0 {
		return ""
	}
	names := make([]string, 0, len(byType))
	for name := range byType {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, byType[name]))
	}
	return strings.Join(parts, ", ")
}
