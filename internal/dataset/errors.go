package dataset

import "errors"

var (
	// ErrEmptyDataset means zero sources ingested successfully. This is the
	// only fatal ingestion condition; per-source failures are skip-and-log.
	ErrEmptyDataset = errors.New("no snapshot sources ingested")

	// ErrNoDateToken means a source name carries no 8-digit date token.
	ErrNoDateToken = errors.New("no YYYYMMDD token in source name")
)
