package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"scorecard-tracker/internal/constants"
	"scorecard-tracker/internal/domain"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

// ReadSnapshot loads the stored leaderboard. Rows with an empty username are
// ignored per the snapshot read contract.
func (r *PlayerRepository) ReadSnapshot(ctx context.Context) ([]domain.PlayerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT username, games_played, total_eliminations, total_deaths,
		       total_assists, total_damage, total_plants, total_defuses,
		       victories, defeats, team, first_seen, last_seen
		FROM players`)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer rows.Close()

	var records []domain.PlayerRecord
	for rows.Next() {
		var rec domain.PlayerRecord
		var team string
		var firstSeen, lastSeen sql.NullTime
		if err := rows.Scan(
			&rec.DisplayUsername, &rec.GamesPlayed, &rec.Eliminations, &rec.Deaths,
			&rec.Assists, &rec.Damage, &rec.Plants, &rec.Defuses,
			&rec.Victories, &rec.Defeats, &team, &firstSeen, &lastSeen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if rec.DisplayUsername == "" {
			continue
		}
		rec.LastTeam = domain.Team(team)
		if firstSeen.Valid {
			rec.FirstSeen = firstSeen.Time
		}
		if lastSeen.Valid {
			rec.LastSeen = lastSeen.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}

	r.logger.Debug().Int("players", len(records)).Msg("snapshot read from local store")
	return records, nil
}

// ReplaceSnapshot swaps the whole stored leaderboard for the given records in
// one transaction, so a failed write never leaves a half-replaced snapshot.
func (r *PlayerRepository) ReplaceSnapshot(ctx context.Context, records []domain.PlayerRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM players`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO players (
			username, games_played, total_eliminations, total_deaths,
			total_assists, total_damage, total_plants, total_defuses,
			victories, defeats, team, first_seen, last_seen, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i := 0; i < len(records); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(records) {
			end = len(records)
		}
		for _, rec := range records[i:end] {
			if _, err := stmt.ExecContext(ctx,
				rec.DisplayUsername, rec.GamesPlayed, rec.Eliminations, rec.Deaths,
				rec.Assists, rec.Damage, rec.Plants, rec.Defuses,
				rec.Victories, rec.Defeats, string(rec.LastTeam),
				rec.FirstSeen, rec.LastSeen, now,
			); err != nil {
				return fmt.Errorf("failed to insert player %s: %w", rec.DisplayUsername, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	r.logger.Info().Int("players", len(records)).Msg("snapshot replaced in local store")
	return nil
}
