package display

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TruncateWidth is the column width used for prompt and response previews
const TruncateWidth = 50

// HistoryRow is one line of the history table
type HistoryRow struct {
	Time     time.Time
	Command  string
	Status   string
	Prompt   string
	Response string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failedStyle = cellStyle.Foreground(lipgloss.Color("1"))
)

// HistoryTable renders rows as a bordered table
func HistoryTable(rows []HistoryRow) string {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			r.Time.Local().Format("2006-01-02 15:04"),
			r.Command,
			r.Status,
			Truncate(r.Prompt, TruncateWidth),
			Truncate(r.Response, TruncateWidth),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Date", "Command", "Status", "Prompt", "Response").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(data) && data[row][2] == "failed" {
				return failedStyle
			}
			return cellStyle
		})
	return t.String()
}

// ShowHistory prints the table, or a hint when empty
func ShowHistory(rows []HistoryRow) {
	if len(rows) == 0 {
		fmt.Fprintln(Stdout, "No history yet.")
		return
	}
	fmt.Fprintln(Stdout, HistoryTable(rows))
}

// Truncate collapses whitespace and cuts s to width runes with an ellipsis
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// ShowKeyValues prints aligned key/value pairs
func ShowKeyValues(pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		boldColor.Fprintf(Stdout, "%-*s", width, p[0])
		fmt.Fprintf(Stdout, "  %s\n", p[1])
	}
}
