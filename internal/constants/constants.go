package constants

import "time"

const (
	ExternalAPITimeout = 60 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 5 * time.Minute
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// KnownPlayersLimit caps the identity context sent with each extraction
	// call so the prompt stays tractable.
	KnownPlayersLimit = 100

	// OracleConcurrency bounds parallel extraction calls. The merge step
	// itself always runs serialized after extraction completes.
	OracleConcurrency = 3

	// SheetBatchSize is the row chunk size for leaderboard writes.
	SheetBatchSize = 100

	// MinRecognizedColumns is the threshold below which a leaderboard header
	// row counts as malformed and gets rebuilt.
	MinRecognizedColumns = 10

	// SummaryLimit is how many top players the run summary shows.
	SummaryLimit = 5
)
