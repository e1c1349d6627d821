package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/paulcha3/group4-BDM-case/src/utils"
	"gopkg.in/yaml.v3"
)

// RunReport is the YAML summary written next to a cleaned file.
type RunReport struct {
	RunID          string               `yaml:"run_id"`
	Source         string               `yaml:"source"`
	Format         string               `yaml:"format"`
	Output         string               `yaml:"output,omitempty"`
	GeneratedAt    time.Time            `yaml:"generated_at"`
	RowsRemoved    int                  `yaml:"rows_removed"`
	RemovedPercent float64              `yaml:"removed_percent"`
	Stats          models.CleaningStats `yaml:"stats"`
}

func NewRunReport(runID, source, format, output string, stats models.CleaningStats, generatedAt time.Time) RunReport {
	return RunReport{
		RunID:          runID,
		Source:         source,
		Format:         format,
		Output:         output,
		GeneratedAt:    generatedAt.UTC(),
		RowsRemoved:    stats.RowsRemoved(),
		RemovedPercent: utils.RoundFloat(stats.RemovedPercent(), 2),
		Stats:          stats,
	}
}

// Save writes the report as YAML.
func (r RunReport) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}

// Load reads a report written by Save.
func Load(path string) (RunReport, error) {
	var r RunReport
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("failed to read run report: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to parse run report: %w", err)
	}
	return r, nil
}

// StageTable renders rows removed per stage as an aligned markdown table.
func StageTable(stats models.CleaningStats) []string {
	table := [][]string{{"Stage", "Removed"}, {"", ""}}
	for _, sc := range stats.RemovedByStage {
		table = append(table, []string{sc.Stage, strconv.Itoa(sc.Removed)})
	}
	table = append(table, []string{"total", fmt.Sprintf("%d of %d (%.1f%%)", stats.RowsRemoved(), stats.InitialRows, stats.RemovedPercent())})
	return alignTable(table)
}

// CurrencyTable renders per-currency conversion outcomes as an aligned markdown table.
func CurrencyTable(stats models.CleaningStats) []string {
	table := [][]string{
		{"Currency", "Rows", "Converted", "Success", "EUR", "Historical", "Fallback", "Failed"},
		{"", "", "", "", "", "", "", ""},
	}
	for _, cs := range stats.Currencies {
		code := cs.Currency
		if code == "" {
			code = "(none)"
		}
		table = append(table, []string{
			code,
			strconv.Itoa(cs.Total),
			strconv.Itoa(cs.Converted),
			fmt.Sprintf("%.1f%%", cs.SuccessRate()),
			strconv.Itoa(cs.ViaEUR),
			strconv.Itoa(cs.ViaHistorical),
			strconv.Itoa(cs.ViaFallback),
			strconv.Itoa(cs.Failed),
		})
	}
	return alignTable(table)
}

// WriteSummary prints both tables separated by a blank line.
func WriteSummary(w io.Writer, stats models.CleaningStats) error {
	lines := StageTable(stats)
	lines = append(lines, "")
	lines = append(lines, CurrencyTable(stats)...)
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// alignTable pads cells to the display width of their column. Row 1 is the separator.
func alignTable(table [][]string) []string {
	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)
	for rIdx, row := range table {
		if rIdx == 1 {
			continue
		}
		for i := 0; i < len(row) && i < colCount; i++ {
			if width := runewidth.StringWidth(row[i]); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(table))
	for i, row := range table {
		var sb strings.Builder
		sb.WriteString("|")
		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")
			if i == 1 {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}
				sb.WriteString(content)
				if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
					sb.WriteString(strings.Repeat(" ", padding))
				}
			}
			sb.WriteString(" |")
		}
		result = append(result, sb.String())
	}
	return result
}
