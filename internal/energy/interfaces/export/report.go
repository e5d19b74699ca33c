package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"eco2mix-insights/internal/energy/domain/aggregate"
	"eco2mix-insights/internal/energy/domain/dataset"
)

// Report is the content of the PDF summary report.
type Report struct {
	Period      dataset.PeriodSelector
	Region      dataset.RegionFilter
	Summary     aggregate.Summary
	Sources     []aggregate.SourceTotal
	Mix         []aggregate.CategoryTotal
	GeneratedAt time.Time
}

// BuildReportPDF renders the headline metrics and production breakdown.
func BuildReportPDF(report Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("eCO2mix regional report", false)
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "eCO2mix Regional Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", report.Period.Label()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Region: %s", report.Region))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Last day: %s", report.Summary.Cutoff.Format(time.DateOnly)))
	pdf.Ln(5)
	if !report.GeneratedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}

	s := report.Summary
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Headline metrics")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	headline := [][2]string{
		{"Consumption today", FormatWatts(s.ConsumptionToday)},
		{"Change vs yesterday", FormatWatts(s.ConsumptionDayDelta())},
		{"Consumption this year", FormatWatts(s.ConsumptionThisYear)},
		{"Change vs last year", FormatWatts(s.ConsumptionYearDelta())},
		{"Exports today", FormatWatts(s.ExportToday())},
		{"Imports today", FormatWatts(s.ImportToday())},
	}
	for _, line := range headline {
		pdf.CellFormat(70, 6, line[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, line[1], "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Source", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Production", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, total := range report.Sources {
		pdf.CellFormat(70, 6, string(total.Source), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, FormatWatts(total.Value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Mix", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Production", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, total := range report.Mix {
		pdf.CellFormat(70, 6, string(total.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, FormatWatts(total.Value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
