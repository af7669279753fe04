package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"scorecard-tracker/internal/domain"
)

const xlsxSheetName = "Leaderboard"

// WriteXLSX writes the snapshot as a spreadsheet with the same layout as the
// flat CSV export.
func WriteXLSX(path string, records []domain.PlayerRecord) error {
	sorted := make([]domain.PlayerRecord, len(records))
	copy(sorted, records)
	domain.SortByKDRatio(sorted)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(FlatHeader))
	for i, h := range FlatHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range sorted {
		row := []interface{}{
			rec.DisplayUsername,
			rec.GamesPlayed,
			rec.Eliminations,
			rec.Assists,
			rec.Deaths,
			rec.Plants,
			rec.Defuses,
			rec.AvgEliminations(),
			rec.AvgAssists(),
			rec.AvgDeaths(),
			rec.AvgPlants(),
			rec.AvgDefuses(),
			rec.KDRatio(),
			string(rec.LastTeam),
			rec.Damage,
			rec.AvgDamage(),
			formatTimestamp(rec.FirstSeen),
			formatTimestamp(rec.LastSeen),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(xlsxSheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	return nil
}
