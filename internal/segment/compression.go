package segment

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the compression algorithm of a segment body.
type Compression uint8

const (
	// CompressionNone stores the body as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses Zstandard (better ratio).
	CompressionZstd Compression = 2
)

// ErrUnknownCompression is returned for unrecognized compression names or codes.
var ErrUnknownCompression = errors.New("unknown compression")

// ParseCompression maps a settings value to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "none":
		return CompressionNone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// String returns the settings name of c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", c)
	}
}

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

// compress returns the compressed body and the codec actually used.
// Incompressible input falls back to CompressionNone.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	if len(data) == 0 {
		return data, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, 0, err
		}
		out = buf[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	if len(out) == 0 || len(out) >= len(data) {
		return data, CompressionNone, nil
	}
	return out, c, nil
}

func decompress(data []byte, c Compression, rawLen int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(data) != rawLen {
			return nil, ErrCorrupt
		}
		return data, nil
	case CompressionLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if n != rawLen {
			return nil, ErrCorrupt
		}
		return out, nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if len(out) != rawLen {
			return nil, ErrCorrupt
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
}
