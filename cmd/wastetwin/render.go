package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"wastetwin/internal/api"
)

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiDim    = "\033[2m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// label turns an identifier such as "cpu_coolers" into "Cpu Coolers".
func label(value string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(value, "_", " "))
}

func colorStatus(status string, colorize bool) string {
	text := label(status)
	if !colorize {
		return text
	}
	switch status {
	case "processing":
		return ansiGreen + text + ansiReset
	case "ready", "queued":
		return ansiYellow + text + ansiReset
	case "failed":
		return ansiRed + text + ansiReset
	case "idle":
		return ansiDim + text + ansiReset
	default:
		return text
	}
}

func formatKg(value float64) string {
	return strconv.FormatFloat(value, 'f', 4, 64) + " kg"
}

func formatPercent(value float64) string {
	return strconv.FormatFloat(value, 'f', 0, 64) + "%"
}

func formatTimestamp(value string) string {
	t, err := api.ParseTime(value)
	if err != nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderStats(out io.Writer, stats api.Stats, colorize bool) {
	fmt.Fprintf(out, "Status:          %s\n", colorStatus(stats.Status, colorize))
	fmt.Fprintf(out, "Queue length:    %d\n", stats.QueueLength)
	if stats.MaxConcurrent > 0 {
		fmt.Fprintf(out, "Active:          %d/%d\n", stats.ActiveCount, stats.MaxConcurrent)
	} else {
		fmt.Fprintf(out, "Active:          %d\n", stats.ActiveCount)
	}
	fmt.Fprintf(out, "Completed today: %d\n", stats.CompletedToday)
	fmt.Fprintf(out, "Total completed: %d\n", stats.TotalCompleted)
	if stats.FailedCount > 0 {
		fmt.Fprintf(out, "Failed:          %d\n", stats.FailedCount)
	}

	if len(stats.Active) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(stats.Active))
		for _, item := range stats.Active {
			rows = append(rows, []string{item.ID, item.Category, formatPercent(item.Progress)})
		}
		fmt.Fprintln(out, renderTable([]string{"Active", "Category", "Progress"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
	}

	rows := make([][]string, 0, len(stats.MaterialTotals))
	for _, material := range sortedKeys(stats.MaterialTotals) {
		qty := stats.MaterialTotals[material]
		if qty == 0 {
			continue
		}
		rows = append(rows, []string{label(material), formatKg(qty)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Material", "Recovered"}, rows, []columnAlignment{alignLeft, alignRight}))
	}
}
