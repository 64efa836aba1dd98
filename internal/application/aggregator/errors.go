package aggregator

import "errors"

// ErrJobNotFound is returned by Submit when the result's jobId has no
// registry entry (already terminal and swept, or never existed).
var ErrJobNotFound = errors.New("aggregator: job not found")

// ErrSubJobNotFound is returned by Submit when the result's subJobId
// was never created for the job's current bookkeeping — distinct from
// a stale-iteration result, which is silently dropped per spec.md §4.4.
var ErrSubJobNotFound = errors.New("aggregator: sub-job not found for result")
