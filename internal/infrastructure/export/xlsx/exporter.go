package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName   = "Leaderboard"
)

// Exporter writes a leaderboard as a single-sheet workbook: one row per model,
// the overall score first and then every category column. Cells hold the
// score; the rank goes into the column to its right.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ContentType() string {
	return ContentType
}

func (e *Exporter) Export(w io.Writer, board domain.Leaderboard) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"Model", "Overall", "Overall rank"}
	for _, column := range board.Columns {
		header = append(header, column, column+" rank")
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range board.Rows {
		values := []any{row.Model}
		values = append(values, cellValues(row.Overall)...)
		for _, column := range board.Columns {
			values = append(values, cellValues(row.Columns[column])...)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", row.Model, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValues(cell domain.LeaderboardCell) []any {
	if cell.Value == nil {
		return []any{cell.Display, nil}
	}
	if cell.Rank == 0 {
		return []any{*cell.Value, nil}
	}
	return []any{*cell.Value, cell.Rank}
}
