package xlsx

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

const (
	SheetExtensions   = "Extensions"
	SheetTypes        = "Types"
	SheetProcessTypes = "Process types"
)

type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// WriteStats renders one sheet per aggregate. The first row of every sheet
// is a header; the Extensions sheet also carries the generation time.
func (e *Exporter) WriteStats(w io.Writer, report domain.StatsReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetExtensions); err != nil {
		return fmt.Errorf("xlsx rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetTypes); err != nil {
		return fmt.Errorf("xlsx new sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetProcessTypes); err != nil {
		return fmt.Errorf("xlsx new sheet: %w", err)
	}

	extRows := make([][]any, 0, len(report.Extensions))
	for _, c := range report.Extensions {
		extRows = append(extRows, []any{c.Extension, c.Total})
	}
	if err := writeTable(f, SheetExtensions, []any{"Extension", "Documents"}, extRows); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetExtensions, "D1", "Generated at"); err != nil {
		return fmt.Errorf("xlsx set cell: %w", err)
	}
	if err := f.SetCellValue(SheetExtensions, "E1", report.GeneratedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("xlsx set cell: %w", err)
	}

	if err := writeTable(f, SheetTypes, []any{"Type", "Documents"}, typeRows(report.Types)); err != nil {
		return err
	}

	nodeRows := make([][]any, 0, len(report.ProcessTypes))
	for _, c := range report.ProcessTypes {
		nodeRows = append(nodeRows, []any{c.NodeID, c.Name, c.Total})
	}
	if err := writeTable(f, SheetProcessTypes, []any{"ID", "Process type", "Documents"}, nodeRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header %s: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %s: %w", sheet, err)
		}
	}
	return nil
}

// typeRows orders by count desc, then label.
func typeRows(types map[string]int64) [][]any {
	labels := make([]string, 0, len(types))
	for label := range types {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if types[labels[i]] != types[labels[j]] {
			return types[labels[i]] > types[labels[j]]
		}
		return labels[i] < labels[j]
	})
	rows := make([][]any, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []any{label, types[label]})
	}
	return rows
}
