package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/jung-kurt/gofpdf"
)

// Sheet is everything a rendered report shows.
type Sheet struct {
	AthleteName     string
	From            string
	To              string
	IncludeRepeated bool
	Totals          *nutrition.TotalsResult
}

// Render produces the file body for format.
func Render(format string, s Sheet) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(s)
	case FormatPDF:
		return renderPDF(s)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// renderCSV: one row per (date, meal type), a "total" row per date and a
// final grand total row.
func renderCSV(s Sheet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{{"date", "meal_type", "calories", "protein", "carbs", "fat"}}
	for _, date := range s.Totals.DateRange {
		day := s.Totals.DailyTotals[date]
		for _, mt := range mealTypes(day) {
			rows = append(rows, nutrientRow(date, mt, day.ByMealType[mt]))
		}
		rows = append(rows, nutrientRow(date, "total", day.Total))
	}
	rows = append(rows, nutrientRow("all", "total", s.Totals.GrandTotal))

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPDF(s Sheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Nutrition report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Nutrition report")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	if s.AthleteName != "" {
		pdf.Cell(0, 7, "Athlete: "+s.AthleteName)
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s - %s", s.From, s.To))
	pdf.Ln(6)
	repeats := "included"
	if !s.IncludeRepeated {
		repeats = "excluded"
	}
	pdf.Cell(0, 7, "Repeating days: "+repeats)
	pdf.Ln(10)

	widths := []float64{30, 40, 30, 30, 30, 30}
	header := []string{"Date", "Meal", "kcal", "Protein g", "Carbs g", "Fat g"}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	line := func(cells []string, bold bool) {
		if bold {
			pdf.SetFont("Helvetica", "B", 9)
			defer pdf.SetFont("Helvetica", "", 9)
		}
		for i, c := range cells {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	for _, date := range s.Totals.DateRange {
		day := s.Totals.DailyTotals[date]
		for _, mt := range mealTypes(day) {
			line(nutrientRow(date, mt, day.ByMealType[mt]), false)
		}
		line(nutrientRow(date, "total", day.Total), true)
	}
	line(nutrientRow("", "Grand total", s.Totals.GrandTotal), true)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func mealTypes(day nutrition.DayTotals) []string {
	out := make([]string, 0, len(day.ByMealType))
	for mt := range day.ByMealType {
		out = append(out, mt)
	}
	sort.Strings(out)
	return out
}

func nutrientRow(date, label string, n nutrition.Nutrients) []string {
	return []string{date, label, formatFloat(n.Calories), formatFloat(n.Protein), formatFloat(n.Carbs), formatFloat(n.Fat)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
