package protocols

import (
	"fmt"
	"sort"
	"time"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/logger"
)

// Prover drives the proving pipeline for a single AIR: trace
// commitment, constraint composition, out-of-domain evaluation, proof
// of work, query openings and the low degree proof, with every random
// draw bound to the transcript through the public coin.
type Prover struct {
	air     AIR
	options *ProofOptions
}

// NewProver validates the options against the AIR and returns a
// prover ready to accept traces. A nil options value selects the
// defaults.
func NewProver(air AIR, options *ProofOptions) (*Prover, error) {
	if air == nil {
		return nil, fmt.Errorf("air must not be nil")
	}
	if options == nil {
		options = DefaultProofOptions()
	}
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid proof options: %w", err)
	}
	if degree := MaxTransitionDegree(air); degree-1 > options.BlowupFactor {
		return nil, fmt.Errorf("blowup factor %d cannot accommodate transition degree %d", options.BlowupFactor, degree)
	}
	return &Prover{air: air, options: options.Clone()}, nil
}

// Prove runs the full pipeline over the given execution trace and
// returns the assembled proof. The phases are strictly sequential at
// the level of coin reseeds; inside each phase the work is spread over
// the configured number of workers.
func (p *Prover) Prove(trace *Trace) (*Proof, error) {
	start := time.Now()
	log := logger.Logger().With().
		Int("rows", trace.Length()).
		Int("columns", trace.Width()).
		Int("blowup", p.options.BlowupFactor).
		Logger()

	if trace.Width() != p.air.TraceWidth() {
		return nil, fmt.Errorf("trace has %d columns, air expects %d", trace.Width(), p.air.TraceWidth())
	}
	if err := ValidateAIR(p.air, trace.Length()); err != nil {
		return nil, fmt.Errorf("invalid air: %w", err)
	}
	if domainLength := trace.Length() * p.options.BlowupFactor; p.options.NumQueries > domainLength {
		return nil, fmt.Errorf("%d queries cannot be distinct over a domain of length %d", p.options.NumQueries, domainLength)
	}

	domains, err := DeriveProverDomains(trace.Length(), p.options.BlowupFactor)
	if err != nil {
		return nil, fmt.Errorf("derive domains: %w", err)
	}
	coin := NewCoin(p.contextSeed(trace.Length()))
	workers := p.options.NumWorkers

	phase := time.Now()
	extended, err := trace.LowDegreeExtend(domains, workers)
	if err != nil {
		return nil, fmt.Errorf("extend trace: %w", err)
	}
	traceTree, err := extended.Commit(workers)
	if err != nil {
		return nil, fmt.Errorf("commit trace: %w", err)
	}
	coin.Reseed(digestBytes(traceTree.Root()))
	log.Debug().Dur("took", time.Since(phase)).Msg("trace committed")

	phase = time.Now()
	weights, err := coin.DrawElements(CountConstraints(p.air))
	if err != nil {
		return nil, fmt.Errorf("draw constraint weights: %w", err)
	}
	evaluator, err := NewConstraintEvaluator(p.air, domains, extended)
	if err != nil {
		return nil, fmt.Errorf("new constraint evaluator: %w", err)
	}
	combined, err := evaluator.EvaluateQuotients(weights, workers)
	if err != nil {
		return nil, fmt.Errorf("evaluate constraint quotients: %w", err)
	}
	composition, err := BuildComposition(combined, p.air, domains, p.options)
	if err != nil {
		return nil, fmt.Errorf("build composition: %w", err)
	}
	compositionTree, err := composition.Commit(workers)
	if err != nil {
		return nil, fmt.Errorf("commit composition: %w", err)
	}
	coin.Reseed(digestBytes(compositionTree.Root()))
	log.Debug().Dur("took", time.Since(phase)).Int("columns", composition.NumColumns()).Msg("composition committed")

	point, err := drawOODPoint(coin, domains)
	if err != nil {
		return nil, fmt.Errorf("draw out-of-domain point: %w", err)
	}
	ood := evaluateOOD(extended, composition, point)
	coin.Reseed(ood.transcriptBytes())

	phase = time.Now()
	nonce := coin.Grind(p.options.GrindingBits)
	log.Debug().Dur("took", time.Since(phase)).Uint64("nonce", nonce).Msg("grinding finished")

	positions, err := coin.DrawIntegers(p.options.NumQueries, domains.LDE.Length)
	if err != nil {
		return nil, fmt.Errorf("draw query positions: %w", err)
	}
	sort.Ints(positions)
	queries, err := openQueries(positions, extended, traceTree, composition, compositionTree)
	if err != nil {
		return nil, fmt.Errorf("open queries: %w", err)
	}

	phase = time.Now()
	degreeBound := composition.NumColumns() * trace.Length()
	friProof, err := ProveLowDegree(combined, domains.LDE, degreeBound, coin, positions, p.options)
	if err != nil {
		return nil, fmt.Errorf("prove low degree: %w", err)
	}
	log.Debug().Dur("took", time.Since(phase)).Int("layers", len(friProof.LayerRoots)).Msg("low degree proof finished")

	proof := &Proof{
		TraceLength:     trace.Length(),
		TraceWidth:      trace.Width(),
		BlowupFactor:    p.options.BlowupFactor,
		GrindingBits:    p.options.GrindingBits,
		TraceRoot:       traceTree.Root(),
		CompositionRoot: compositionTree.Root(),
		OOD:             *ood,
		PowNonce:        nonce,
		Queries:         queries,
		FRI:             *friProof,
	}
	log.Info().Dur("took", time.Since(start)).Int("queries", len(queries)).Msg("proof assembled")
	return proof, nil
}

// contextSeed derives the coin's initial seed from everything public
// about the run: the proof parameters and the AIR's public inputs.
// Two runs over different statements never share a transcript.
func (p *Prover) contextSeed(traceLength int) []byte {
	context := []field.Element{
		field.New(uint64(traceLength)),
		field.New(uint64(p.air.TraceWidth())),
		field.New(uint64(p.options.BlowupFactor)),
		field.New(uint64(p.options.NumQueries)),
		field.New(uint64(p.options.GrindingBits)),
	}
	context = append(context, p.air.PublicInputs()...)
	return digestBytes(hash.HashVarlen(context))
}
