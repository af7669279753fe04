package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"scorecard-tracker/internal/aggregate"
	"scorecard-tracker/internal/config"
	"scorecard-tracker/internal/constants"
	"scorecard-tracker/internal/dedupe"
	"scorecard-tracker/internal/domain"
	"scorecard-tracker/internal/export"
	"scorecard-tracker/internal/oracle"
	"scorecard-tracker/internal/repository"
	"scorecard-tracker/internal/sink"
)

var (
	ErrNoImages  = errors.New("no image files found")
	ErrNoResults = errors.New("no data extracted from images")
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// RunOptions is the per-run input surface.
type RunOptions struct {
	Images []string
	Folder string

	OutputCSV  string
	OutputXLSX string

	// SkipSink disables the leaderboard sink write. The snapshot is still
	// read for merge context when available.
	SkipSink bool

	// DisableDuplicateCheck turns the duplicate-image guard off for this
	// run regardless of configuration.
	DisableDuplicateCheck bool
}

// RunReport is what one processing run did, including skip and failure
// counters.
type RunReport struct {
	RunID string `json:"run_id"`

	ImagesFound     int `json:"images_found"`
	ImagesProcessed int `json:"images_processed"`
	ImagesDuplicate int `json:"images_duplicate"`
	ImagesFailed    int `json:"images_failed"`

	Merge aggregate.Stats `json:"merge"`

	PlayersTotal int `json:"players_total"`

	CSVPath   string `json:"csv_path,omitempty"`
	XLSXPath  string `json:"xlsx_path,omitempty"`
	SinkName  string `json:"sink_name,omitempty"`
	SinkError string `json:"sink_error,omitempty"`
	CSVError  string `json:"csv_error,omitempty"`

	Top []domain.PlayerRecord `json:"top"`
}

// Processor runs the whole pipeline for one batch of screenshots: duplicate
// filtering, extraction, a single serialized merge, flat export, and the
// leaderboard sink write. All mutable state is scoped to one Run call.
type Processor struct {
	cfg    *config.Config
	oracle *oracle.Client
	engine *aggregate.Engine
	snk    sink.Sink
	images *repository.ImageRepository
	logger zerolog.Logger
}

func NewProcessor(
	cfg *config.Config,
	oracleClient *oracle.Client,
	engine *aggregate.Engine,
	snk sink.Sink,
	images *repository.ImageRepository,
	logger zerolog.Logger,
) *Processor {
	return &Processor{
		cfg:    cfg,
		oracle: oracleClient,
		engine: engine,
		snk:    snk,
		images: images,
		logger: logger,
	}
}

// Run processes one batch of screenshots. Individual image failures and
// duplicates are counted and skipped; the run only fails outright when no
// images are found or nothing could be extracted.
func (p *Processor) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	report := &RunReport{RunID: runID}
	logger := p.logger.With().Str("run_id", runID).Logger()

	files, err := collectImages(opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}
	report.ImagesFound = len(files)
	logger.Info().Int("images", len(files)).Msg("starting processing run")

	// The snapshot is read once up front: the known-identity context sent
	// to the oracle reflects leaderboard state at the start of the run, so
	// extraction stays order-independent and reproducible.
	existing := p.readSnapshot(ctx, logger)
	known := aggregate.KnownPlayers(existing, constants.KnownPlayersLimit)
	if len(known) > 0 {
		logger.Info().Int("known_players", len(known)).Msg("seeding extraction with known identities")
	}

	jobs, guard := p.filterDuplicates(ctx, files, opts, report, logger)
	results := p.extractAll(ctx, jobs, guard, known, report, logger)
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	report.ImagesProcessed = len(results)

	// Single serialized merge after all extraction completes; the engine
	// is not safe for concurrent use.
	merged, stats := p.engine.Merge(existing, results)
	report.Merge = stats
	report.PlayersTotal = len(merged)

	ranked := aggregate.Rank(merged)

	// Flat export is written before any sink attempt so users always have
	// a fallback artifact.
	csvPath := opts.OutputCSV
	if csvPath == "" {
		csvPath = fmt.Sprintf("scorecard_stats_%s.csv", time.Now().Format("20060102_150405"))
	}
	if err := export.WriteCSV(csvPath, ranked); err != nil {
		logger.Error().Err(err).Str("path", csvPath).Msg("flat export failed")
		report.CSVError = err.Error()
	} else {
		report.CSVPath = csvPath
		logger.Info().Str("path", csvPath).Int("players", len(ranked)).Msg("flat export written")
	}

	if opts.OutputXLSX != "" {
		if err := export.WriteXLSX(opts.OutputXLSX, ranked); err != nil {
			logger.Error().Err(err).Str("path", opts.OutputXLSX).Msg("xlsx export failed")
		} else {
			report.XLSXPath = opts.OutputXLSX
		}
	}

	if !opts.SkipSink {
		report.SinkName = p.snk.Name()
		if err := p.snk.Write(ctx, ranked); err != nil {
			// Sink failures are reported, never fatal: the flat export
			// already exists.
			logger.Error().Err(err).Str("sink", p.snk.Name()).Msg("leaderboard sink write failed")
			report.SinkError = err.Error()
		} else {
			logger.Info().Str("sink", p.snk.Name()).Msg("leaderboard sink updated")
		}
	}

	if len(ranked) > constants.SummaryLimit {
		report.Top = ranked[:constants.SummaryLimit]
	} else {
		report.Top = ranked
	}

	return report, nil
}

// Leaderboard returns the current ranked snapshot without processing images.
func (p *Processor) Leaderboard(ctx context.Context) ([]domain.PlayerRecord, error) {
	records, err := p.snk.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	return aggregate.Rank(p.engine.Index(records)), nil
}

func (p *Processor) readSnapshot(ctx context.Context, logger zerolog.Logger) map[string]domain.PlayerRecord {
	records, err := p.snk.Read(ctx)
	if err != nil {
		// A sink read failure degrades to an empty snapshot; the run and
		// its flat export continue.
		logger.Warn().Err(err).Str("sink", p.snk.Name()).Msg("failed to read existing leaderboard, merging against empty snapshot")
		return map[string]domain.PlayerRecord{}
	}
	return p.engine.Index(records)
}

type extractionJob struct {
	path string
	hash string
	data []byte
}

// filterDuplicates reads each file and drops exact content duplicates. The
// guard pass is sequential so the first occurrence deterministically wins.
// Hashes are only persisted across runs after successful extraction, so the
// guard is returned for the extraction phase to finish the job.
func (p *Processor) filterDuplicates(ctx context.Context, files []string, opts RunOptions, report *RunReport, logger zerolog.Logger) ([]extractionJob, *dedupe.Guard) {
	var store dedupe.Store
	if p.cfg.PersistImageHashes {
		store = p.images
	}
	guard := dedupe.NewGuard(p.cfg.DuplicateCheck && !opts.DisableDuplicateCheck, store, logger)

	jobs := make([]extractionJob, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("image", path).Msg("failed to read image file")
			report.ImagesFailed++
			continue
		}
		hash := dedupe.HashBytes(data)
		if guard.Seen(ctx, hash) {
			logger.Info().Str("image", filepath.Base(path)).Msg("skipping duplicate image")
			report.ImagesDuplicate++
			continue
		}
		guard.Mark(hash)
		jobs = append(jobs, extractionJob{path: path, hash: hash, data: data})
	}
	return jobs, guard
}

// extractAll fans extraction calls out with bounded parallelism. The known
// identity list is fixed for the whole run, so calls are independent;
// results are collected by input position to keep merge order deterministic.
func (p *Processor) extractAll(ctx context.Context, jobs []extractionJob, guard *dedupe.Guard, known []string, report *RunReport, logger zerolog.Logger) []domain.ImageResult {
	slots := make([]*domain.ImageResult, len(jobs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.OracleConcurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gCtx, constants.ExternalAPITimeout)
			defer cancel()

			name := filepath.Base(job.path)
			result, err := p.oracle.Extract(callCtx, job.data, oracle.MimeTypeFor(name), known)
			if err != nil {
				// Recoverable per-image failure: drop the image, keep the run.
				logger.Warn().Err(err).Str("image", name).Msg("extraction failed, skipping image")
				return nil
			}

			sourceID, err := gonanoid.New()
			if err != nil {
				logger.Warn().Err(err).Str("image", name).Msg("failed to generate source image id")
				sourceID = name
			}
			result.Match.Timestamp = time.Now()
			result.Match.SourceImageID = sourceID
			result.Match.ImageFile = name

			// Cross-run hash persistence waits for success so a failed
			// extraction can be retried on a later run.
			guard.Persist(gCtx, job.hash, name)

			slots[i] = result
			logger.Info().Str("image", name).Int("players", len(result.Players)).Msg("image extracted")
			return nil
		})
	}
	// Workers swallow per-image errors, so Wait only propagates context
	// cancellation; results for cancelled calls just stay nil.
	_ = g.Wait()

	results := make([]domain.ImageResult, 0, len(jobs))
	for _, r := range slots {
		if r == nil {
			report.ImagesFailed++
			continue
		}
		results = append(results, *r)
	}
	return results
}

// collectImages gathers explicit paths plus the folder scan; the two sources
// combine rather than one shadowing the other.
func collectImages(opts RunOptions) ([]string, error) {
	files := make([]string, 0, len(opts.Images))
	files = append(files, opts.Images...)

	if opts.Folder == "" {
		return files, nil
	}

	entries, err := os.ReadDir(opts.Folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := imageExtensions[ext]; ok {
			files = append(files, filepath.Join(opts.Folder, entry.Name()))
		}
	}
	return files, nil
}
