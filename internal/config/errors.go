package config

import "github.com/pkg/errors"

// Validation errors. Validate wraps them with the offending value.
var (
	ErrInvalidRefreshRate = errors.New("invalid refresh rate: must be positive")
	ErrInvalidPadding     = errors.New("invalid padding: must be positive")
	ErrInvalidThreshold   = errors.New("invalid threshold: must be between 0 and 1")
	ErrInvalidConfidence  = errors.New("invalid OCR confidence: must be between 0 and 1")
	ErrInvalidCacheSize   = errors.New("invalid cache size: must be positive")
	ErrInvalidBatch       = errors.New("invalid OCR batch: cap and workers must be positive")
	ErrInvalidDuration    = errors.New("invalid duration: must not be negative")
	ErrInvalidHighWater   = errors.New("invalid memory high-water mark: must be between 1 and 100")
	ErrInvalidSpeechRate  = errors.New("invalid speech rate: must be positive")
	ErrInvalidDepth       = errors.New("invalid accessibility depth: must be positive")

	// ErrConfigNotFound is returned by Load when an explicitly named file
	// does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
