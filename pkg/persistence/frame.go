package persistence

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// ErrMalformed marks a stored blob that cannot be turned back into state:
// a bad frame, a checksum mismatch, undecodable payload or a value that
// fails validation.
var ErrMalformed = errors.New("malformed blob")

// Frame layout:
//
//	+-------+-------------+-----------------------+----------------+
//	| codec | compression | BLAKE3-256(payload)   | payload ...    |
//	| 1 B   | 1 B         | 32 B                  |                |
//	+-------+-------------+-----------------------+----------------+
//
// The checksum covers the stored (possibly compressed) payload so
// corruption is caught before any decoder runs. Frames are
// self-describing: a blob written with one codec/compression loads under
// any configuration.
const (
	checksumSize = 32
	headerSize   = 2 + checksumSize
)

// encodeFrame serializes v and wraps it in a frame.
func encodeFrame(v any, codec Codec, compression Compression) ([]byte, error) {
	payload, err := codec.marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", codec, err)
	}
	payload, err = compression.compress(payload)
	if err != nil {
		return nil, err
	}

	sum := blake3.Sum256(payload)

	frame := make([]byte, 0, headerSize+len(payload))
	frame = append(frame, byte(codec), byte(compression))
	frame = append(frame, sum[:]...)
	frame = append(frame, payload...)
	return frame, nil
}

// decodeFrame verifies a frame and decodes its payload into v.
//
// Unframed JSON (data starting with '{' or '[') is accepted as a legacy
// value written before framing existed; it carries no checksum.
func decodeFrame(data []byte, v any) error {
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		if err := CodecJSON.unmarshal(data, v); err != nil {
			return fmt.Errorf("%w: legacy json: %v", ErrMalformed, err)
		}
		return nil
	}

	if len(data) < headerSize {
		return fmt.Errorf("%w: frame too short (%d bytes)", ErrMalformed, len(data))
	}

	codec := Codec(data[0])
	compression := Compression(data[1])
	want := data[2:headerSize]
	payload := data[headerSize:]

	got := blake3.Sum256(payload)
	if !bytes.Equal(got[:], want) {
		return fmt.Errorf("%w: checksum mismatch", ErrMalformed)
	}

	decoded, err := compression.decompress(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := codec.unmarshal(decoded, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformed, codec, err)
	}
	return nil
}
