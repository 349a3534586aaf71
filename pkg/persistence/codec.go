package persistence

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Codec identifies the serialization of a blob payload. Tags are stored
// in the first byte of every frame; changing them breaks stored data.
type Codec uint8

const (
	// CodecJSON encodes payloads as JSON (the default, human-readable)
	CodecJSON Codec = 1

	// CodecCBOR encodes payloads as CBOR with Core Deterministic Encoding
	CodecCBOR Codec = 2
)

// String returns the configuration name of the codec.
func (c Codec) String() string {
	switch c {
	case CodecJSON:
		return "json"
	case CodecCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCodec parses a codec name. The empty string selects JSON.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return CodecJSON, nil
	case "cbor":
		return CodecCBOR, nil
	default:
		return 0, fmt.Errorf("unknown codec: %q", name)
	}
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// tree.Kind implements encoding.TextMarshaler and is stored as text.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	cborEnc, err = encOptions.EncMode()
	if err != nil {
		panic("persistence: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("persistence: CBOR decoder initialization failed: " + err.Error())
	}
}

func (c Codec) marshal(v any) ([]byte, error) {
	switch c {
	case CodecJSON:
		return json.Marshal(v)
	case CodecCBOR:
		return cborEnc.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported codec: %d", uint8(c))
	}
}

func (c Codec) unmarshal(data []byte, v any) error {
	switch c {
	case CodecJSON:
		return json.Unmarshal(data, v)
	case CodecCBOR:
		return cborDec.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported codec: %d", uint8(c))
	}
}
