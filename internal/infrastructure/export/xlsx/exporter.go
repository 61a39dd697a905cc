package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

const SheetName = "Batch"

var header = []any{
	"#", "Code", "Country", "CIF value", "Status", "Matched code", "Description",
	"Standard rate %", "Applied rate %", "Treatment", "Duty", "Savings",
	"VAT rate %", "VAT", "Total", "Alerts", "Error",
}

// Exporter writes batch results as a single-sheet workbook, one row per item
// in input order.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportBatch(w io.Writer, items []domain.BatchItem) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("xlsx write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("xlsx apply header style: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("xlsx freeze header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx cell name: %w", err)
		}
		row := itemRow(item)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("xlsx write row %d: %w", item.Index, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func itemRow(item domain.BatchItem) []any {
	req := item.Request
	row := []any{item.Index + 1, req.Code, req.Country, req.CIFValue.InexactFloat64()}

	switch {
	case item.Error != nil:
		return append(row, "error", "", "", "", "", "", "", "", "", "", "", "", item.Error.Message)
	case item.Resolution == nil:
		return append(row, "error", "", "", "", "", "", "", "", "", "", "", "", "missing resolution")
	case item.Resolution.Status == domain.StatusIncomplete:
		return append(row, "incomplete", "", candidatesText(item.Resolution.Incomplete))
	}

	result := item.Resolution.Result
	row[2] = result.Country.Code
	return append(row,
		"complete",
		result.MatchedCode,
		result.Description,
		result.Duty.StandardRate.InexactFloat64(),
		result.Duty.AppliedRate.InexactFloat64(),
		string(result.Duty.Treatment),
		result.Duty.Amount.InexactFloat64(),
		result.Duty.Savings.InexactFloat64(),
		result.VAT.Rate.InexactFloat64(),
		result.VAT.Amount.InexactFloat64(),
		result.Total.InexactFloat64(),
		alertsText(result.Alerts),
		"",
	)
}

func candidatesText(signal *domain.IncompleteCodeSignal) string {
	if signal == nil {
		return ""
	}
	codes := make([]string, 0, len(signal.Candidates))
	for _, c := range signal.Candidates {
		codes = append(codes, c.Code)
	}
	return "Code is incomplete, candidates: " + strings.Join(codes, ", ")
}

func alertsText(alerts []domain.Alert) string {
	parts := make([]string, 0, len(alerts))
	for _, a := range alerts {
		parts = append(parts, a.ShortText)
	}
	return strings.Join(parts, "; ")
}
