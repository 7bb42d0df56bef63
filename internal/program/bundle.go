package program

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// bundleMagic opens every serialized compressed program
var bundleMagic = [4]byte{'T', 'P', 'C', 'B'}

const bundleVersion byte = 0x01

// bundleHeaderSize is magic plus version
const bundleHeaderSize = 5

// cborEncMode uses canonical options so equal programs encode to equal bytes
var cborEncMode cbor.EncMode

// cborDecMode accepts every stream Serialize can produce. The library
// default caps arrays at 131072 elements.
var cborDecMode cbor.DecMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("program: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{MaxArrayElements: math.MaxInt32}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("program: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

type bundleBody struct {
	Name string        `cbor:"1,keyasint,omitempty"`
	Code []bundleInstr `cbor:"2,keyasint"`
}

type bundleInstr struct {
	Kind Kind  `cbor:"1,keyasint"`
	Arg  int32 `cbor:"2,keyasint,omitempty"`
}

// Serialize encodes the program as a bundle.
// Format:
// - Magic number (4 bytes): "TPCB"
// - Version (1 byte): 0x01
// - CBOR-encoded body (name, instructions)
func (p *Compressed) Serialize() ([]byte, error) {
	body := bundleBody{Name: p.name, Code: make([]bundleInstr, len(p.instructions))}
	for i, ins := range p.instructions {
		body.Code[i] = bundleInstr{Kind: ins.Kind, Arg: ins.Arg}
	}

	payload, err := cborEncMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("bundle cbor encoding failed: %w", err)
	}

	buf := new(bytes.Buffer)
	buf.Grow(bundleHeaderSize + len(payload))
	buf.Write(bundleMagic[:])
	buf.WriteByte(bundleVersion)
	buf.Write(payload)
	return buf.Bytes(), nil
}

// IsBundle reports whether data starts with the bundle magic
func IsBundle(data []byte) bool {
	return len(data) >= bundleHeaderSize && bytes.Equal(data[:4], bundleMagic[:])
}

// Deserialize decodes a bundle produced by Serialize. Bracket targets are
// re-derived and compared, so a damaged jump table is rejected rather than
// executed.
func Deserialize(data []byte) (*Compressed, error) {
	if !IsBundle(data) {
		return nil, fmt.Errorf("%w: missing magic header", ErrCorruptBundle)
	}
	if v := data[4]; v != bundleVersion {
		return nil, fmt.Errorf("%w: unsupported version 0x%02x", ErrCorruptBundle, v)
	}

	var body bundleBody
	if err := cborDecMode.Unmarshal(data[bundleHeaderSize:], &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBundle, err)
	}

	stream := make([]Instruction, len(body.Code))
	for i, c := range body.Code {
		stream[i] = Instruction{Kind: c.Kind, Arg: c.Arg}
	}

	p, err := fromInstructions(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBundle, err)
	}
	p.name = body.Name
	return p, nil
}
