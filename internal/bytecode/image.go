package bytecode

import (
	"errors"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

const (
	imageMagic   = "LOXC"
	imageVersion = 1
)

// ErrBadImage is returned for images that fail validation.
var ErrBadImage = errors.New("invalid chunk image")

// Image is the serialized form of a Chunk. Constants are stored as their
// IEEE-754 bit patterns so every value, NaN payloads included, survives
// the trip unchanged.
type Image struct {
	Magic     string   `cbor:"1,keyasint"`
	Version   int      `cbor:"2,keyasint"`
	BuildID   string   `cbor:"3,keyasint"`
	Code      []byte   `cbor:"4,keyasint"`
	Constants []uint64 `cbor:"5,keyasint"`
	Lines     []int    `cbor:"6,keyasint"`
}

var imageEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor enc mode: %v", err))
	}
	return em
}()

// NewImage snapshots chunk under a fresh build ID.
func NewImage(chunk *Chunk) *Image {
	img := &Image{
		Magic:     imageMagic,
		Version:   imageVersion,
		BuildID:   uuid.NewString(),
		Code:      append([]byte(nil), chunk.Code...),
		Constants: make([]uint64, len(chunk.Constants)),
		Lines:     append([]int(nil), chunk.Lines...),
	}
	for i, v := range chunk.Constants {
		img.Constants[i] = math.Float64bits(v)
	}
	return img
}

// Marshal encodes the image deterministically.
func (img *Image) Marshal() ([]byte, error) {
	data, err := imageEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("encode chunk image: %w", err)
	}
	return data, nil
}

// Chunk rebuilds and validates the chunk held by the image.
func (img *Image) Chunk() (*Chunk, error) {
	if img.Magic != imageMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadImage, img.Magic)
	}
	if img.Version != imageVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadImage, img.Version)
	}
	if _, err := uuid.Parse(img.BuildID); err != nil {
		return nil, fmt.Errorf("%w: build id: %v", ErrBadImage, err)
	}
	chunk := &Chunk{
		Code:      append([]byte(nil), img.Code...),
		Constants: make([]Value, len(img.Constants)),
		Lines:     append(LineIndex(nil), img.Lines...),
	}
	for i, bits := range img.Constants {
		chunk.Constants[i] = math.Float64frombits(bits)
	}
	if total := chunk.Lines.Total(); total != len(chunk.Code) {
		return nil, fmt.Errorf("%w: line index covers %d bytes, code has %d", ErrBadImage, total, len(chunk.Code))
	}
	for offset := 0; offset < len(chunk.Code); {
		in, err := chunk.Decode(offset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
		}
		offset = in.Next()
	}
	return chunk, nil
}

// EncodeChunk serializes chunk as a CBOR image.
func EncodeChunk(chunk *Chunk) ([]byte, error) {
	if chunk == nil {
		return nil, fmt.Errorf("nil chunk")
	}
	return NewImage(chunk).Marshal()
}

// DecodeImage parses a CBOR image without validating its contents.
func DecodeImage(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	return &img, nil
}

// DecodeChunk parses and validates a CBOR image produced by EncodeChunk.
func DecodeChunk(data []byte) (*Chunk, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return img.Chunk()
}
