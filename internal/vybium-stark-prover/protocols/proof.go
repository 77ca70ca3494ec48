package protocols

import (
	"bytes"
	"encoding/binary"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// proofVersion is written into the serialized header so external
// verifiers can reject layouts they do not understand.
const proofVersion = 1

// Proof is the immutable output of a proving run. It contains
// everything an external verifier needs: the two commitments, the
// out-of-domain evaluations, the proof-of-work nonce, the query
// openings and the low degree proof.
type Proof struct {
	TraceLength  int
	TraceWidth   int
	BlowupFactor int
	GrindingBits int

	TraceRoot       hash.Digest
	CompositionRoot hash.Digest
	OOD             OODEvaluations
	PowNonce        uint64
	Queries         []QueryOpening
	FRI             FRIProof
}

// Bytes serializes the proof into its wire layout: a parameter header,
// the trace and composition roots, the out-of-domain evaluation
// vector, the proof-of-work nonce, one record per query opening and
// the low degree proof. Field elements are eight little-endian bytes,
// digests are five elements, and list lengths are unsigned varints.
func (p *Proof) Bytes() []byte {
	var buf bytes.Buffer

	writeUvarint(&buf, proofVersion)
	writeUvarint(&buf, uint64(p.TraceLength))
	writeUvarint(&buf, uint64(p.TraceWidth))
	writeUvarint(&buf, uint64(p.BlowupFactor))
	writeUvarint(&buf, uint64(p.GrindingBits))

	buf.Write(digestBytes(p.TraceRoot))
	buf.Write(digestBytes(p.CompositionRoot))

	writeElements(&buf, p.OOD.Trace)
	writeElements(&buf, p.OOD.Composition)

	var nonce [8]byte
	binary.LittleEndian.PutUint64(nonce[:], p.PowNonce)
	buf.Write(nonce[:])

	writeUvarint(&buf, uint64(len(p.Queries)))
	for _, query := range p.Queries {
		writeUvarint(&buf, uint64(query.Position))
		writeElements(&buf, query.TraceRow)
		writeDigests(&buf, query.TracePath)
		writeElements(&buf, query.CompositionRow)
		writeDigests(&buf, query.CompositionPath)
	}

	writeDigests(&buf, p.FRI.LayerRoots)
	writeUvarint(&buf, uint64(len(p.FRI.LayerOpenings)))
	for _, layer := range p.FRI.LayerOpenings {
		writeUvarint(&buf, uint64(len(layer)))
		for _, opening := range layer {
			buf.Write(elementsBytes(opening.PairValues[:]))
			writeDigests(&buf, opening.Path)
		}
	}
	writeElements(&buf, p.FRI.FinalCoefficients)

	return buf.Bytes()
}

// Size returns the length of the serialized proof in bytes.
func (p *Proof) Size() int {
	return len(p.Bytes())
}

// elementsBytes encodes field elements as eight little-endian bytes
// each, with no length prefix. It is the encoding used for every
// transcript reseed, so prover and verifier absorb identical bytes.
func elementsBytes(values []field.Element) []byte {
	buf := make([]byte, 8*len(values))
	for i, value := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], value.Value())
	}
	return buf
}

// digestBytes encodes a digest as its five elements in order.
func digestBytes(digest hash.Digest) []byte {
	return elementsBytes(digest[:])
}

func writeUvarint(buf *bytes.Buffer, value uint64) {
	var scratch [binary.MaxVarintLen64]byte
	written := binary.PutUvarint(scratch[:], value)
	buf.Write(scratch[:written])
}

func writeElements(buf *bytes.Buffer, values []field.Element) {
	writeUvarint(buf, uint64(len(values)))
	buf.Write(elementsBytes(values))
}

func writeDigests(buf *bytes.Buffer, digests []hash.Digest) {
	writeUvarint(buf, uint64(len(digests)))
	for _, digest := range digests {
		buf.Write(digestBytes(digest))
	}
}
