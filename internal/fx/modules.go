package fx

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"scorecard-tracker/internal/aggregate"
	"scorecard-tracker/internal/config"
	"scorecard-tracker/internal/database"
	"scorecard-tracker/internal/identity"
	"scorecard-tracker/internal/logger"
	"scorecard-tracker/internal/oracle"
	"scorecard-tracker/internal/repository"
	"scorecard-tracker/internal/server"
	"scorecard-tracker/internal/service"
	"scorecard-tracker/internal/sink"
)

// ProvideSink picks the leaderboard sink: Google Sheets when configured and
// reachable, otherwise the local sqlite store. A sheets setup failure only
// downgrades the sink; it never blocks processing.
func ProvideSink(cfg *config.Config, repo *repository.PlayerRepository, log zerolog.Logger) sink.Sink {
	if cfg.SheetsConfigured() {
		s, err := sink.NewSheetsSink(context.Background(), cfg, log)
		if err == nil {
			return s
		}
		log.Warn().Err(err).Msg("google sheets sink unavailable, falling back to local store")
	} else {
		log.Debug().Msg("google sheets not configured, using local leaderboard store")
	}
	return sink.NewLocalSink(repo, log)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Decorate(func(log zerolog.Logger, cfg *config.Config) zerolog.Logger {
		return logger.WithLevel(log, cfg.LogLevel)
	}),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewImageRepository),
	// core pipeline
	fx.Provide(identity.New),
	fx.Provide(aggregate.NewEngine),
	fx.Provide(oracle.NewClient),
	fx.Provide(ProvideSink),
	// svc
	fx.Provide(service.NewProcessor),
	// server
	fx.Provide(server.New),
)
