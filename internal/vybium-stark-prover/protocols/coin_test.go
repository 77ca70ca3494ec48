package protocols

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func TestCoinIsDeterministic(t *testing.T) {
	first := NewCoin([]byte("shared seed"))
	second := NewCoin([]byte("shared seed"))

	for i := 0; i < 10; i++ {
		a, err := first.DrawElement()
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		b, err := second.DrawElement()
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		if a.Value() != b.Value() {
			t.Fatalf("draw %d diverged: %d vs %d", i, a.Value(), b.Value())
		}
	}

	first.Reseed([]byte("commitment"))
	second.Reseed([]byte("commitment"))
	a, _ := first.DrawIntegers(5, 64)
	b, _ := second.DrawIntegers(5, 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("integer draw %d diverged: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestCoinSeedSeparation(t *testing.T) {
	first, err := NewCoin([]byte("seed one")).DrawElement()
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	second, err := NewCoin([]byte("seed two")).DrawElement()
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if first.Value() == second.Value() {
		t.Error("different seeds should give different first draws")
	}
}

func TestReseedChangesSubsequentDraws(t *testing.T) {
	plain := NewCoin([]byte("seed"))
	reseeded := NewCoin([]byte("seed"))
	reseeded.Reseed([]byte("extra data"))

	a, _ := plain.DrawElement()
	b, _ := reseeded.DrawElement()
	if a.Value() == b.Value() {
		t.Error("reseeding should change the draw sequence")
	}
}

func TestDrawElementStaysInField(t *testing.T) {
	coin := NewCoin([]byte("range check"))
	for i := 0; i < 1000; i++ {
		element, err := coin.DrawElement()
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if element.Value() >= field.P {
			t.Fatalf("draw %d out of field: %d", i, element.Value())
		}
	}
}

func TestDrawElements(t *testing.T) {
	coin := NewCoin([]byte("batch"))
	elements, err := coin.DrawElements(7)
	if err != nil {
		t.Fatalf("draw batch: %v", err)
	}
	if len(elements) != 7 {
		t.Fatalf("expected 7 elements, got %d", len(elements))
	}
}

func TestDrawIntegersDistinctWithinBound(t *testing.T) {
	coin := NewCoin([]byte("positions"))
	positions, err := coin.DrawIntegers(30, 256)
	if err != nil {
		t.Fatalf("draw integers: %v", err)
	}
	if len(positions) != 30 {
		t.Fatalf("expected 30 positions, got %d", len(positions))
	}
	seen := make(map[int]bool)
	for _, p := range positions {
		if p < 0 || p >= 256 {
			t.Errorf("position %d out of range", p)
		}
		if seen[p] {
			t.Errorf("duplicate position %d", p)
		}
		seen[p] = true
	}
}

func TestDrawIntegersFullRange(t *testing.T) {
	coin := NewCoin([]byte("permutation"))
	positions, err := coin.DrawIntegers(8, 8)
	if err != nil {
		t.Fatalf("draw integers: %v", err)
	}
	seen := make(map[int]bool)
	for _, p := range positions {
		seen[p] = true
	}
	if len(seen) != 8 {
		t.Errorf("expected all 8 values, got %d distinct", len(seen))
	}
}

// TestDrawIntegersSpreadAcrossDomain buckets many draws and expects
// every bucket near its share. The band is wide enough that a correct
// hash chain cannot plausibly fail it.
func TestDrawIntegersSpreadAcrossDomain(t *testing.T) {
	const (
		bound   = 256
		draws   = 32
		rounds  = 200
		buckets = 8
	)

	counts := make([]int, buckets)
	for r := 0; r < rounds; r++ {
		coin := NewCoin([]byte(fmt.Sprintf("uniformity-%d", r)))
		positions, err := coin.DrawIntegers(draws, bound)
		if err != nil {
			t.Fatalf("draw integers: %v", err)
		}
		for _, p := range positions {
			counts[p*buckets/bound]++
		}
	}

	expected := rounds * draws / buckets
	for b, count := range counts {
		if count < expected*3/4 || count > expected*5/4 {
			t.Errorf("bucket %d holds %d positions, expected about %d", b, count, expected)
		}
	}
}

func TestDrawIntegersRejectsBadArguments(t *testing.T) {
	coin := NewCoin([]byte("bad args"))
	if _, err := coin.DrawIntegers(1, 0); err == nil {
		t.Error("expected error for zero bound")
	}
	if _, err := coin.DrawIntegers(-1, 8); err == nil {
		t.Error("expected error for negative count")
	}
	if _, err := coin.DrawIntegers(9, 8); err == nil {
		t.Error("expected error when count exceeds bound")
	}
}

func TestGrindFindsValidNonce(t *testing.T) {
	coin := NewCoin([]byte("work"))
	stateBefore := coin.State()

	nonce := coin.Grind(8)

	// Recompute the difficulty check against the pre-grind state.
	buf := append(stateBefore, make([]byte, 8)...)
	binary.LittleEndian.PutUint64(buf[len(stateBefore):], nonce)
	digest := sha3.Sum256(buf)
	if bits.LeadingZeros64(binary.BigEndian.Uint64(digest[:8])) < 8 {
		t.Errorf("nonce %d does not clear 8 difficulty bits", nonce)
	}

	// Smaller nonces must all fail, otherwise the search is not minimal.
	for candidate := uint64(0); candidate < nonce; candidate++ {
		binary.LittleEndian.PutUint64(buf[len(stateBefore):], candidate)
		d := sha3.Sum256(buf)
		if bits.LeadingZeros64(binary.BigEndian.Uint64(d[:8])) >= 8 {
			t.Fatalf("nonce %d also clears the target but is below %d", candidate, nonce)
		}
	}
}

func TestGrindWithZeroBitsIsTrivial(t *testing.T) {
	coin := NewCoin([]byte("no work"))
	if nonce := coin.Grind(0); nonce != 0 {
		t.Errorf("zero difficulty should accept nonce 0, got %d", nonce)
	}
}

func TestGrindAdvancesState(t *testing.T) {
	coin := NewCoin([]byte("work"))
	before := coin.State()
	coin.Grind(4)
	after := coin.State()
	if string(before) == string(after) {
		t.Error("grinding should absorb the nonce into the state")
	}
}

func TestCoinSamplingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("drawn elements stay below the field order", prop.ForAll(
		func(seed uint64) bool {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], seed)
			element, err := NewCoin(buf[:]).DrawElement()
			return err == nil && element.Value() < field.P
		},
		gen.UInt64(),
	))

	properties.Property("integer draws are distinct and bounded", prop.ForAll(
		func(seed uint64, bound int) bool {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], seed)
			count := bound / 4
			positions, err := NewCoin(buf[:]).DrawIntegers(count, bound)
			if err != nil || len(positions) != count {
				return false
			}
			seen := make(map[int]bool)
			for _, p := range positions {
				if p < 0 || p >= bound || seen[p] {
					return false
				}
				seen[p] = true
			}
			return true
		},
		gen.UInt64(),
		gen.IntRange(4, 4096),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
