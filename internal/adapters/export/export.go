// Package export flattens stored lineups into one row per member for
// spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/dawgbowl/internal/domain/model"
)

const (
	filePrefix = "dawg_bowl_lineups_"
	stampFmt   = "20060102_150405"
	sheetName  = "Lineups"
)

// Header is the column order shared by every format.
var Header = []string{"Username", "Player", "Role", "Salary", "Entry Time"}

// Row is one lineup member.
type Row struct {
	Username  string
	Player    string
	Role      string
	Salary    int
	EnteredAt time.Time
}

func (r Row) strings() []string {
	return []string{r.Username, r.Player, r.Role, strconv.Itoa(r.Salary), r.EnteredAt.UTC().Format(time.RFC3339)}
}

// Rows flattens lineups in the order given. Salary is the listed salary, not
// the captain cost.
func Rows(lineups []model.SubmittedLineup) []Row {
	rows := make([]Row, 0, len(lineups)*model.RosterSize)
	for _, l := range lineups {
		for _, m := range l.Members {
			rows = append(rows, Row{
				Username:  l.Username,
				Player:    m.Contestant.Name,
				Role:      m.Slot.Role(),
				Salary:    m.Contestant.Salary,
				EnteredAt: l.EnteredAt,
			})
		}
	}
	return rows
}

// Filename names an export taken at now, e.g.
// dawg_bowl_lineups_20260208_190000.csv.
func Filename(now time.Time, ext string) string {
	return filePrefix + now.Format(stampFmt) + "." + ext
}

// WriteCSV writes a header line and one record per member.
func WriteCSV(w io.Writer, lineups []model.SubmittedLineup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range Rows(lineups) {
		if err := cw.Write(r.strings()); err != nil {
			return fmt.Errorf("write csv row for %s: %w", r.Username, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook.
// Salary cells are numeric.
func WriteXLSX(w io.Writer, lineups []model.SubmittedLineup) error {
	f := excelize.NewFile()
	defer f.Close()

	def := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(def, sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, r := range Rows(lineups) {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell for row %d: %w", i+2, err)
		}
		cells := []interface{}{r.Username, r.Player, r.Role, r.Salary, r.EnteredAt.UTC().Format(time.RFC3339)}
		if err := f.SetSheetRow(sheetName, axis, &cells); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
