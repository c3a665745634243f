// Package metrics provides Prometheus metrics for tonebank.
package metrics

// Operation names used as label values
const (
	OpResolve = "resolve"
	OpIngest  = "ingest"
	OpRebuild = "rebuild"
	OpLookup  = "lookup"
	OpRemove  = "remove"
	OpRetune  = "retune"
)

// Status label values
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusCreated     = "created"
	StatusReused      = "reused"
	StatusUnavailable = "unavailable"
	StatusHit         = "hit"
	StatusMiss        = "miss"
)

// Histogram bucket parameters
const (
	// BucketStart100us is the starting bucket for 0.1ms histograms (0.1ms to ~400ms range).
	BucketStart100us = 0.0001
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001
	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
	// BucketCount15 defines 15 exponential buckets.
	BucketCount15 = 15
)
