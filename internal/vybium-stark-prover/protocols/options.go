package protocols

import (
	"fmt"
	"runtime"
)

// ProofOptions holds the tunable parameters for proof generation.
type ProofOptions struct {
	// BlowupFactor is the ratio between the evaluation domain and the
	// trace domain. Must be a power of two.
	BlowupFactor int

	// NumQueries is the number of spot-check positions drawn after the
	// proof-of-work phase.
	NumQueries int

	// GrindingBits is the number of leading zero bits the proof-of-work
	// nonce must produce. Zero disables grinding.
	GrindingBits int

	// NumWorkers bounds the goroutines used for trace extension,
	// constraint evaluation and query openings. The worker count never
	// changes proof bytes.
	NumWorkers int

	// DebugChecks enables the expensive internal consistency checks,
	// such as verifying quotient degrees by interpolation.
	DebugChecks bool
}

// DefaultProofOptions returns options targeting roughly 100 bits of
// security at an eightfold blowup.
func DefaultProofOptions() *ProofOptions {
	return &ProofOptions{
		BlowupFactor: 8,
		NumQueries:   30,
		GrindingBits: 16,
		NumWorkers:   runtime.NumCPU(),
		DebugChecks:  false,
	}
}

// Validate checks that the options are internally consistent.
func (o *ProofOptions) Validate() error {
	if o.BlowupFactor < 2 || o.BlowupFactor&(o.BlowupFactor-1) != 0 {
		return fmt.Errorf("blowup factor must be a power of two of at least 2, got %d", o.BlowupFactor)
	}
	if o.NumQueries <= 0 {
		return fmt.Errorf("number of queries must be positive, got %d", o.NumQueries)
	}
	if o.GrindingBits < 0 || o.GrindingBits > 32 {
		return fmt.Errorf("grinding bits must be in [0, 32], got %d", o.GrindingBits)
	}
	if o.NumWorkers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", o.NumWorkers)
	}
	return nil
}

// WithBlowupFactor sets the blowup factor
func (o *ProofOptions) WithBlowupFactor(factor int) *ProofOptions {
	o.BlowupFactor = factor
	return o
}

// WithNumQueries sets the number of query positions
func (o *ProofOptions) WithNumQueries(queries int) *ProofOptions {
	o.NumQueries = queries
	return o
}

// WithGrindingBits sets the proof-of-work difficulty
func (o *ProofOptions) WithGrindingBits(bits int) *ProofOptions {
	o.GrindingBits = bits
	return o
}

// WithNumWorkers sets the worker count
func (o *ProofOptions) WithNumWorkers(workers int) *ProofOptions {
	o.NumWorkers = workers
	return o
}

// WithDebugChecks toggles the internal consistency checks
func (o *ProofOptions) WithDebugChecks(enabled bool) *ProofOptions {
	o.DebugChecks = enabled
	return o
}

// Clone creates a copy of the options
func (o *ProofOptions) Clone() *ProofOptions {
	clone := *o
	return &clone
}
