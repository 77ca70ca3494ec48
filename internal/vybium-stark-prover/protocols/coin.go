package protocols

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

const (
	// maxElementDraws bounds the rejection loop for a single field
	// element. A candidate misses the field with probability below
	// 2^-32, so hitting this bound signals a broken transcript.
	maxElementDraws = 64

	// maxIndexDraws bounds the total attempts for one batch of
	// distinct index draws, covering both range rejections and
	// duplicate hits.
	maxIndexDraws = 1000
)

// Coin is the Fiat-Shamir random coin. Both prover and verifier feed
// it the same commitments in the same order, so both observe the same
// pseudo-random challenges. The state is a SHA3-256 hash chain: every
// reseed absorbs new transcript data and every draw attempt advances
// the chain by one hash.
type Coin struct {
	state [32]byte
}

// NewCoin creates a coin seeded with the given transcript prefix.
func NewCoin(seed []byte) *Coin {
	return &Coin{state: sha3.Sum256(seed)}
}

// Reseed absorbs transcript data into the coin state.
func (c *Coin) Reseed(data []byte) {
	buf := make([]byte, 0, len(c.state)+len(data))
	buf = append(buf, c.state[:]...)
	buf = append(buf, data...)
	c.state = sha3.Sum256(buf)
}

// State returns a copy of the current coin state.
func (c *Coin) State() []byte {
	return append([]byte(nil), c.state[:]...)
}

// next returns the next 64 bits of transcript randomness and advances
// the state.
func (c *Coin) next() uint64 {
	candidate := binary.LittleEndian.Uint64(c.state[:8])
	c.state = sha3.Sum256(c.state[:])
	return candidate
}

// DrawElement samples a uniform field element. Candidates at or above
// the field order are rejected and redrawn so the result carries no
// modular bias.
func (c *Coin) DrawElement() (field.Element, error) {
	for attempt := 0; attempt < maxElementDraws; attempt++ {
		if candidate := c.next(); candidate < field.P {
			return field.New(candidate), nil
		}
	}
	return field.Zero, fmt.Errorf("no field element accepted after %d draws", maxElementDraws)
}

// DrawElements samples count uniform field elements.
func (c *Coin) DrawElements(count int) ([]field.Element, error) {
	elements := make([]field.Element, count)
	for i := range elements {
		element, err := c.DrawElement()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		elements[i] = element
	}
	return elements, nil
}

// DrawIntegers samples count distinct integers in [0, bound), in draw
// order. Candidates above the largest multiple of bound are rejected
// before reduction so the result stays unbiased, and duplicates are
// redrawn. Both kinds of rejection count against the attempt budget.
func (c *Coin) DrawIntegers(count, bound int) ([]int, error) {
	if bound <= 0 {
		return nil, fmt.Errorf("draw bound must be positive, got %d", bound)
	}
	if count < 0 || count > bound {
		return nil, fmt.Errorf("cannot draw %d distinct integers below %d", count, bound)
	}

	b := uint64(bound)
	overflow := (math.MaxUint64%b + 1) % b
	seen := bitset.New(uint(bound))
	result := make([]int, 0, count)

	for attempt := 0; attempt < maxIndexDraws && len(result) < count; attempt++ {
		candidate := c.next()
		if overflow != 0 && candidate > math.MaxUint64-overflow {
			continue
		}
		value := uint(candidate % b)
		if seen.Test(value) {
			continue
		}
		seen.Set(value)
		result = append(result, int(value))
	}

	if len(result) < count {
		return nil, fmt.Errorf("drew %d of %d distinct integers below %d within %d attempts",
			len(result), count, bound, maxIndexDraws)
	}
	return result, nil
}

// Grind searches for the smallest nonce whose hash against the current
// state clears the difficulty target, then absorbs the nonce into the
// transcript. The search scans nonces in order so the result is
// deterministic for a given state.
func (c *Coin) Grind(difficultyBits int) uint64 {
	for nonce := uint64(0); ; nonce++ {
		if c.checkNonce(nonce, difficultyBits) {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], nonce)
			c.Reseed(buf[:])
			return nonce
		}
	}
}

// checkNonce reports whether hashing the nonce against the current
// state yields at least difficultyBits leading zero bits. It does not
// advance the state.
func (c *Coin) checkNonce(nonce uint64, difficultyBits int) bool {
	buf := make([]byte, 0, len(c.state)+8)
	buf = append(buf, c.state[:]...)
	var encoded [8]byte
	binary.LittleEndian.PutUint64(encoded[:], nonce)
	buf = append(buf, encoded[:]...)

	digest := sha3.Sum256(buf)
	leading := binary.BigEndian.Uint64(digest[:8])
	return bits.LeadingZeros64(leading) >= difficultyBits
}
