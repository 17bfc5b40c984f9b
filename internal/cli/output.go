package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/planner"
	"github.com/libreria-pagine/turni/backend/internal/scheduler"
)

var (
	closedColor  = color.New(color.FgHiBlack)
	doubleColor  = color.New(color.FgMagenta)
	headerColor  = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
	skippedColor = color.New(color.FgYellow)
)

// table 按纯文本计算列宽，颜色在补齐空格之后再加上，避免转义序列影响对齐
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer, paint func(v string) string) {
	widths := make([]int, len(t.header))
	for _, row := range append([][]string{t.header}, t.rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	line := func(row []string, paint func(string) string) {
		var sb strings.Builder
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(paint(cell))
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}

	line(t.header, func(v string) string { return headerColor.Sprint(v) })
	for _, row := range t.rows {
		line(row, paint)
	}
}

func plain(v string) string { return v }

func slotText(v string) string {
	switch v {
	case domain.ShiftClosed:
		return closedColor.Sprint(v)
	case domain.ShiftDoubleCoverage:
		return doubleColor.Sprint(v)
	}
	return v
}

func printShifts(w io.Writer, shifts []*domain.Shift) {
	t := &table{header: []string{"DATA", "GIORNO", "MATTINA", "POMERIGGIO", "NOTE"}}
	for _, s := range shifts {
		t.add(s.Date, s.DayOfWeek, s.MorningShift, s.AfternoonShift, s.Notes)
	}
	t.render(w, slotText)
}

func printQuotas(w io.Writer, q scheduler.Quotas) {
	fmt.Fprintf(w, "Turni disponibili: %d (fine settimana: %d)\n", q.Available, q.WeekendAvailable)
	t := &table{header: []string{"DIPENDENTE", "QUOTA", "FINE SETTIMANA"}}
	for _, wq := range q.Workers {
		t.add(wq.Worker, strconv.Itoa(wq.Monthly), strconv.Itoa(wq.Weekend))
	}
	t.render(w, plain)
}

func printStats(w io.Writer, stats []domain.WorkerStats) {
	t := &table{header: []string{"DIPENDENTE", "TOTALE", "SABATI", "DOMENICHE", "FESTIVI", "PREFESTIVI", "SPECIALI"}}
	for _, st := range stats {
		t.add(st.Worker, strconv.Itoa(st.Total), strconv.Itoa(st.Saturday), strconv.Itoa(st.Sunday),
			strconv.Itoa(st.Holiday), strconv.Itoa(st.PreHoliday), strconv.Itoa(st.Special))
	}
	t.render(w, plain)
}

func printResult(w io.Writer, res *planner.Result) {
	switch res.Status {
	case planner.StatusGenerated:
		fmt.Fprintf(w, "%s  %s (%d turni)\n", res.Month, okColor.Sprint("generato"), len(res.Shifts))
	case planner.StatusSkipped:
		fmt.Fprintf(w, "%s  %s (turni già presenti)\n", res.Month, skippedColor.Sprint("saltato"))
	}
}
