package embedcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression for encoded vectors.
type Compression uint8

const (
	// CompressionNone stores raw little-endian float32s.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

// ErrCorrupt is returned when an encoded vector cannot be decoded.
var ErrCorrupt = errors.New("embedcache: corrupt vector block")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block format:
// [Compression uint8][Dim uint32][PayloadSize uint32][Payload...]
// The payload is stored raw (Compression 0) when compression does not help.
const headerSize = 9

// EncodeVector serialises vec with the requested compression.
func EncodeVector(vec []float32, c Compression) ([]byte, error) {
	raw := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(f))
	}

	payload := raw
	used := CompressionNone

	if len(raw) == 0 {
		c = CompressionNone
	}

	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, err
		}
		if n > 0 && n < len(raw) {
			payload, used = buf[:n], CompressionLZ4
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		out := enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
		if len(out) < len(raw) {
			payload, used = out, CompressionZSTD
		}
	case CompressionNone:
	default:
		return nil, fmt.Errorf("embedcache: unknown compression %d", c)
	}

	block := make([]byte, headerSize+len(payload))
	block[0] = byte(used)
	binary.LittleEndian.PutUint32(block[1:], uint32(len(vec)))
	binary.LittleEndian.PutUint32(block[5:], uint32(len(payload)))
	copy(block[headerSize:], payload)
	return block, nil
}

// DecodeVector parses a block written by EncodeVector.
func DecodeVector(block []byte) ([]float32, error) {
	if len(block) < headerSize {
		return nil, ErrCorrupt
	}
	c := Compression(block[0])
	dim := int(binary.LittleEndian.Uint32(block[1:]))
	size := int(binary.LittleEndian.Uint32(block[5:]))
	if len(block) < headerSize+size {
		return nil, ErrCorrupt
	}
	payload := block[headerSize : headerSize+size]

	var raw []byte
	switch c {
	case CompressionNone:
		raw = payload
	case CompressionLZ4:
		raw = make([]byte, 4*dim)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		raw = raw[:n]
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(payload, make([]byte, 0, 4*dim))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		raw = out
	default:
		return nil, ErrCorrupt
	}

	if len(raw) != 4*dim {
		return nil, ErrCorrupt
	}

	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}
