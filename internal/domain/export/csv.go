// Package export renders scoreboards as downloadable CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/ranking"
	"github.com/okian/tally/internal/domain/timefmt"
)

// entryHeader is the fixed column header for the entry block.
var entryHeader = []string{"Name", "Score", "Details", "Created At", "Updated At"}

// WriteCSV writes the export format: a metadata block, a blank separator
// line, then a header row and one row per entry in rank order. Quoting is
// RFC4180 (encoding/csv): fields containing comma, quote or newline are
// quoted with internal quotes doubled, everything else is emitted as-is.
func WriteCSV(w io.Writer, sb *model.Scoreboard, entries []ranking.Ranked) error {
	cw := csv.NewWriter(w)

	meta := [][]string{
		{"Scoreboard Title", sb.Title},
		{"Description", sb.Description},
		{"Score Type", string(sb.ScoreType)},
		{"Time Format", sb.TimeFormat},
		{"Sort Order", string(sb.SortOrder)},
		{"Visibility", string(sb.Visibility)},
		{"Created", sb.CreatedAt.Format("2006-01-02")},
		{"Total Entries", strconv.Itoa(len(entries))},
	}
	for _, row := range meta {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
	}

	// Blank separator line between the metadata block and the entry table.
	if err := cw.Write([]string{""}); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}

	if err := cw.Write(entryHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, e := range entries {
		row := []string{
			e.Name,
			formatScore(sb, e.Score),
			e.Details,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// formatScore renders a score for export. Time scores use the board's
// display format; a score that cannot be formatted (negative, unknown
// format) falls back to the raw number.
func formatScore(sb *model.Scoreboard, score float64) string {
	if sb.ScoreType == model.ScoreTime {
		if s, err := timefmt.Format(sb.TimeFormat, int64(score)); err == nil {
			return s
		}
	}
	return strconv.FormatFloat(score, 'f', -1, 64)
}
