package sink

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"scorecard-tracker/internal/config"
	"scorecard-tracker/internal/constants"
	"scorecard-tracker/internal/domain"
)

// sheetHeader is the canonical worksheet layout, one leaderboard row per
// player, kd_ratio descending. The sheet deliberately carries no victories,
// defeats, or first_seen columns: it is the human-facing leaderboard view,
// and sheets-backed snapshots restart those fields from zero on read. The
// local store keeps the full record.
var sheetHeader = []string{
	"last_updated", "username", "games_played",
	"total_eliminations", "total_assists", "total_deaths",
	"total_plants", "total_defuses",
	"avg_eliminations", "avg_assists", "avg_deaths", "avg_plants", "avg_defuses",
	"kd_ratio", "team", "total_damage", "avg_damage",
}

// SheetsSink stores the leaderboard snapshot in a Google Sheets worksheet.
type SheetsSink struct {
	svc       *sheets.Service
	sheetID   string
	worksheet string
	logger    zerolog.Logger
}

func NewSheetsSink(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*SheetsSink, error) {
	if !cfg.SheetsConfigured() {
		return nil, fmt.Errorf("google sheets sink not configured")
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.SheetsCredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsSink{
		svc:       svc,
		sheetID:   cfg.SheetID,
		worksheet: cfg.WorksheetName,
		logger:    logger,
	}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

// Read loads the snapshot rows. The header row maps column names to indices
// so column reordering in the sheet never corrupts a read; rows with an
// empty username are ignored.
func (s *SheetsSink) Read(ctx context.Context) ([]domain.PlayerRecord, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.sheetID, fmt.Sprintf("'%s'", s.worksheet)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", s.worksheet, err)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}

	cols := make(map[string]int, len(resp.Values[0]))
	for i, cell := range resp.Values[0] {
		cols[strings.TrimSpace(cellString(cell))] = i
	}

	var records []domain.PlayerRecord
	for _, row := range resp.Values[1:] {
		username := strings.TrimSpace(rowString(row, cols, "username"))
		if username == "" {
			continue
		}
		rec := domain.PlayerRecord{
			DisplayUsername: username,
			GamesPlayed:     rowInt(row, cols, "games_played"),
			Eliminations:    rowInt(row, cols, "total_eliminations"),
			Assists:         rowInt(row, cols, "total_assists"),
			Deaths:          rowInt(row, cols, "total_deaths"),
			Plants:          rowInt(row, cols, "total_plants"),
			Defuses:         rowInt(row, cols, "total_defuses"),
			Damage:          rowInt(row, cols, "total_damage"),
			LastTeam:        domain.Team(rowString(row, cols, "team")),
			LastSeen:        rowTime(row, cols, "last_updated"),
		}
		records = append(records, rec)
	}

	s.logger.Debug().Int("players", len(records)).Msg("snapshot read from google sheets")
	return records, nil
}

// Write replaces the data region with the given records, kd_ratio descending.
// New rows overwrite the old region first and the stale tail is cleared
// after, so a mid-write failure leaves the previous rows rather than an
// empty sheet. Rows go out in one batched call, chunked per value range.
func (s *SheetsSink) Write(ctx context.Context, records []domain.PlayerRecord) error {
	if err := s.ensureHeader(ctx); err != nil {
		return err
	}

	sorted := make([]domain.PlayerRecord, len(records))
	copy(sorted, records)
	domain.SortByKDRatio(sorted)

	var data []*sheets.ValueRange
	for i := 0; i < len(sorted); i += constants.SheetBatchSize {
		end := i + constants.SheetBatchSize
		if end > len(sorted) {
			end = len(sorted)
		}
		values := make([][]interface{}, 0, end-i)
		for _, rec := range sorted[i:end] {
			values = append(values, recordRow(rec))
		}
		data = append(data, &sheets.ValueRange{
			Range:          fmt.Sprintf("'%s'!A%d", s.worksheet, 2+i),
			MajorDimension: "ROWS",
			Values:         values,
		})
	}

	if len(data) > 0 {
		_, err := s.svc.Spreadsheets.Values.
			BatchUpdate(s.sheetID, &sheets.BatchUpdateValuesRequest{
				ValueInputOption: "USER_ENTERED",
				Data:             data,
			}).
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write leaderboard rows: %w", err)
		}
	}

	tail := fmt.Sprintf("'%s'!A%d:Q", s.worksheet, 2+len(sorted))
	if _, err := s.svc.Spreadsheets.Values.
		Clear(s.sheetID, tail, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear stale leaderboard rows: %w", err)
	}

	s.logger.Info().Int("players", len(sorted)).Str("worksheet", s.worksheet).Msg("leaderboard written to google sheets")
	return nil
}

// ensureHeader rebuilds the header row when it is absent or has fewer than
// the minimum recognized columns, clearing the sheet first since the data
// region cannot be trusted either.
func (s *SheetsSink) ensureHeader(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.sheetID, fmt.Sprintf("'%s'!1:1", s.worksheet)).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read header row: %w", err)
	}

	recognized := 0
	if len(resp.Values) > 0 {
		known := make(map[string]struct{}, len(sheetHeader))
		for _, h := range sheetHeader {
			known[h] = struct{}{}
		}
		for _, cell := range resp.Values[0] {
			if _, ok := known[strings.TrimSpace(cellString(cell))]; ok {
				recognized++
			}
		}
	}
	if recognized >= constants.MinRecognizedColumns {
		return nil
	}

	s.logger.Warn().Int("recognized_columns", recognized).Msg("rebuilding malformed leaderboard header")

	if _, err := s.svc.Spreadsheets.Values.
		Clear(s.sheetID, fmt.Sprintf("'%s'", s.worksheet), &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear worksheet: %w", err)
	}

	header := make([]interface{}, len(sheetHeader))
	for i, h := range sheetHeader {
		header[i] = h
	}
	_, err = s.svc.Spreadsheets.Values.
		Update(s.sheetID, fmt.Sprintf("'%s'!A1", s.worksheet), &sheets.ValueRange{
			Values: [][]interface{}{header},
		}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	return nil
}

// Diagnose verifies the worksheet is reachable with the configured
// credentials and reports its title.
func (s *SheetsSink) Diagnose(ctx context.Context) (string, error) {
	meta, err := s.svc.Spreadsheets.Get(s.sheetID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to open spreadsheet %s: %w", s.sheetID, err)
	}
	for _, ws := range meta.Sheets {
		if ws.Properties != nil && ws.Properties.Title == s.worksheet {
			return meta.Properties.Title, nil
		}
	}
	return "", fmt.Errorf("worksheet %q not found in spreadsheet %q", s.worksheet, meta.Properties.Title)
}

func recordRow(rec domain.PlayerRecord) []interface{} {
	return []interface{}{
		formatTime(rec.LastSeen),
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
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func rowString(row []interface{}, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return cellString(row[idx])
}

func rowInt(row []interface{}, cols map[string]int, name string) int {
	str := strings.TrimSpace(rowString(row, cols, name))
	if str == "" {
		return 0
	}
	if n, err := strconv.Atoi(str); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(str, 64); err == nil {
		return int(f)
	}
	return 0
}

func rowTime(row []interface{}, cols map[string]int, name string) time.Time {
	str := strings.TrimSpace(rowString(row, cols, name))
	if str == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t
	}
	return time.Time{}
}
