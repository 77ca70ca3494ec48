package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vybium/vybium-stark-prover/pkg/vybium-stark-prover"
)

// Input format: one JSON object per line on stdin, the claim first and
// the proof options second.
type ClaimInput struct {
	Statement   string  `json:"statement"`
	TraceLength int     `json:"trace_length"`
	Output      *uint64 `json:"output,omitempty"`
}

type OptionsInput struct {
	BlowupFactor int  `json:"blowup_factor,omitempty"`
	NumQueries   int  `json:"num_queries,omitempty"`
	GrindingBits *int `json:"grinding_bits,omitempty"`
	NumWorkers   int  `json:"num_workers,omitempty"`
	DebugChecks  bool `json:"debug_checks,omitempty"`
}

type ProofOutput struct {
	Statement   string `json:"statement"`
	TraceLength int    `json:"trace_length"`
	TraceWidth  int    `json:"trace_width"`
	Output      uint64 `json:"output"`
	Proof       string `json:"proof"` // Hex string
	ProofBytes  int    `json:"proof_bytes"`
}

func main() {
	scanner := bufio.NewScanner(os.Stdin)

	// Line 1: Claim
	if !scanner.Scan() {
		fatal("Failed to read claim")
	}
	var claimInput ClaimInput
	if err := json.Unmarshal(scanner.Bytes(), &claimInput); err != nil {
		fatal(fmt.Sprintf("Failed to parse claim: %v", err))
	}

	// Line 2: Proof options
	if !scanner.Scan() {
		fatal("Failed to read options")
	}
	var optionsInput OptionsInput
	if err := json.Unmarshal(scanner.Bytes(), &optionsInput); err != nil {
		fatal(fmt.Sprintf("Failed to parse options: %v", err))
	}

	if claimInput.Statement != "fibonacci" {
		fatal(fmt.Sprintf("Unknown statement: %s", claimInput.Statement))
	}
	if claimInput.TraceLength < 2 {
		fatal(fmt.Sprintf("Trace length must be at least 2, got %d", claimInput.TraceLength))
	}

	options := convertOptions(optionsInput)

	// Build the witness and check it against the claim
	logStderr(fmt.Sprintf("Building fibonacci trace with %d rows...", claimInput.TraceLength))
	columns, output := buildFibonacciColumns(claimInput.TraceLength)
	if claimInput.Output != nil && output.Value() != *claimInput.Output {
		fatal(fmt.Sprintf("Claimed output %d does not match computed output %d",
			*claimInput.Output, output.Value()))
	}

	trace, err := vybiumstarkprover.NewTrace(columns)
	if err != nil {
		fatal(fmt.Sprintf("Failed to build trace: %v", err))
	}

	air, err := vybiumstarkprover.NewFibonacciAIR(claimInput.TraceLength, output)
	if err != nil {
		fatal(fmt.Sprintf("Failed to build constraint system: %v", err))
	}

	logStderr("Creating prover...")
	prover, err := vybiumstarkprover.NewProver(air, options)
	if err != nil {
		fatal(fmt.Sprintf("Failed to create prover: %v", err))
	}

	// Generate proof
	logStderr("Generating proof...")
	proof, err := prover.Prove(trace)
	if err != nil {
		fatal(fmt.Sprintf("Proof generation failed: %v", err))
	}

	proofBytes := proof.Bytes()
	logStderr(fmt.Sprintf("Proof generated successfully (%d bytes)", len(proofBytes)))

	record := ProofOutput{
		Statement:   claimInput.Statement,
		TraceLength: claimInput.TraceLength,
		TraceWidth:  air.TraceWidth(),
		Output:      output.Value(),
		Proof:       hex.EncodeToString(proofBytes),
		ProofBytes:  len(proofBytes),
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		fatal(fmt.Sprintf("Failed to serialize proof: %v", err))
	}

	// Write proof record to stdout
	os.Stdout.Write(encoded)
	os.Stdout.Write([]byte("\n"))
}

func convertOptions(input OptionsInput) *vybiumstarkprover.ProofOptions {
	options := vybiumstarkprover.DefaultProofOptions()
	if input.BlowupFactor != 0 {
		options = options.WithBlowupFactor(input.BlowupFactor)
	}
	if input.NumQueries != 0 {
		options = options.WithNumQueries(input.NumQueries)
	}
	if input.GrindingBits != nil {
		options = options.WithGrindingBits(*input.GrindingBits)
	}
	if input.NumWorkers != 0 {
		options = options.WithNumWorkers(input.NumWorkers)
	}
	if input.DebugChecks {
		options = options.WithDebugChecks(true)
	}
	return options
}

func buildFibonacciColumns(numRows int) ([][]vybiumstarkprover.FieldElement, vybiumstarkprover.FieldElement) {
	first := make([]vybiumstarkprover.FieldElement, numRows)
	second := make([]vybiumstarkprover.FieldElement, numRows)
	first[0] = vybiumstarkprover.NewFieldElement(1)
	second[0] = vybiumstarkprover.NewFieldElement(1)
	for i := 1; i < numRows; i++ {
		first[i] = second[i-1]
		second[i] = first[i-1].Add(second[i-1])
	}
	return [][]vybiumstarkprover.FieldElement{first, second}, second[numRows-1]
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "vybium-prover:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
