package events

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"leaveportal/internal/domain/calendar"
)

type RosterRow struct {
	Title  string
	From   time.Time
	To     time.Time
	Days   int
	Reason string
}

func monthBounds(month time.Time) (time.Time, time.Time) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	last := calendar.EndOfDay(first.AddDate(0, 1, -1))
	return first, last
}

// RosterRows returns the summaries whose span touches month, clipped to it.
func RosterRows(summaries []calendar.TitleSummary, month time.Time) []RosterRow {
	first, last := monthBounds(month)
	rows := make([]RosterRow, 0)
	for _, s := range summaries {
		from := s.MinStart.In(month.Location())
		to := s.MaxEnd.In(month.Location())
		if from.After(last) || to.Before(first) {
			continue
		}
		if from.Before(first) {
			from = first
		}
		if to.After(last) {
			to = last
		}
		days := 0
		for d := calendar.StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
			days++
		}
		rows = append(rows, RosterRow{
			Title:  s.Title,
			From:   from,
			To:     to,
			Days:   days,
			Reason: s.ReasonText(),
		})
	}
	return rows
}

func RenderRosterPDF(summaries []calendar.TitleSummary, month time.Time, title string) ([]byte, error) {
	if title == "" {
		title = "Leave roster"
	}
	rows := RosterRows(summaries, month)

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("%s - %s", title, month.Format("January 2006"))))
	pdf.Ln(14)

	widths := []float64{70, 35, 35, 25, 110}
	headers := []string{"Employee", "From", "To", "Days", "Reason"}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	if len(rows) == 0 {
		pdf.CellFormat(sum(widths), 8, "Nobody is on leave this month.", "1", 1, "C", false, 0, "")
	}
	for _, row := range rows {
		pdf.CellFormat(widths[0], 7, tr(row.Title), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, row.From.Format(calendar.DayLayout), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, row.To.Format(calendar.DayLayout), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%d", row.Days), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, tr(row.Reason), "1", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering roster pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
