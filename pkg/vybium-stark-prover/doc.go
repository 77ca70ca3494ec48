// Package vybiumstarkprover provides a zkSTARK prover over algebraic
// execution traces.
//
// A computation is expressed as an AIR (Algebraic Intermediate
// Representation): transition constraints coupling adjacent rows of an
// execution trace plus boundary constraints pinning individual cells
// to public values. The prover commits to the low-degree extended
// trace, combines all constraint quotients into a composition
// polynomial, evaluates everything at a random out-of-domain point and
// proves the combination low-degree with FRI. All verifier randomness
// is derived from a Fiat-Shamir public coin, hardened with a
// proof-of-work grind before query selection.
//
// # Features
//
// - Complete zkSTARK proving pipeline over a 64-bit prime field
// - Pluggable AIR interface for arbitrary constraint systems
// - Tip5-based Merkle commitments for trace and composition tables
// - FRI low degree proofs with pair-committed folding layers
// - Fiat-Shamir public coin with unbiased draws and grinding
// - Deterministic parallel proving: worker count never changes a proof
//
// # Quick Start
//
// Proving that a trace satisfies the Fibonacci recurrence:
//
//	air, err := vybiumstarkprover.NewFibonacciAIR(64, claimedOutput)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	prover, err := vybiumstarkprover.NewProver(air, vybiumstarkprover.DefaultProofOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	proof, err := prover.Prove(trace)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Serialize for an external verifier
//	payload := proof.Bytes()
//
// # Architecture
//
// - pkg/vybium-stark-prover/: Public API (this package)
// - internal/vybium-stark-prover/: Private implementation (not importable)
//
// The public API provides stable interfaces for:
// - Proof generation over arbitrary AIRs
// - Execution trace construction
// - Proof serialization
//
// Implementation details in internal/ can be refactored without breaking the public API.
//
// # References
//
// - STARK Paper: https://eprint.iacr.org/2018/046
// - FRI Paper: https://eccc.weizmann.ac.il/report/2017/134/
package vybiumstarkprover
