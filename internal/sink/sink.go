// Package sink owns the durable leaderboard snapshot. The aggregation engine
// reads the snapshot once at run start and replaces it once after the full
// merge completes; sinks never see partial merges.
package sink

import (
	"context"

	"github.com/rs/zerolog"

	"scorecard-tracker/internal/domain"
	"scorecard-tracker/internal/repository"
)

// Sink is the leaderboard snapshot store. Write has full-replace semantics
// and must be logically atomic: a failed write never leaves a half-replaced
// snapshot visible to subsequent reads.
type Sink interface {
	Name() string
	Read(ctx context.Context) ([]domain.PlayerRecord, error)
	Write(ctx context.Context, records []domain.PlayerRecord) error
}

// LocalSink keeps the snapshot in the embedded sqlite store. It is the
// fallback when Google Sheets is not configured, and the transaction in the
// repository gives atomic replacement for free.
type LocalSink struct {
	repo   *repository.PlayerRepository
	logger zerolog.Logger
}

func NewLocalSink(repo *repository.PlayerRepository, logger zerolog.Logger) *LocalSink {
	return &LocalSink{repo: repo, logger: logger}
}

func (s *LocalSink) Name() string { return "local" }

func (s *LocalSink) Read(ctx context.Context) ([]domain.PlayerRecord, error) {
	return s.repo.ReadSnapshot(ctx)
}

func (s *LocalSink) Write(ctx context.Context, records []domain.PlayerRecord) error {
	sorted := make([]domain.PlayerRecord, len(records))
	copy(sorted, records)
	domain.SortByKDRatio(sorted)
	return s.repo.ReplaceSnapshot(ctx, sorted)
}
