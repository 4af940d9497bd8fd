package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/mossy-p/arshare/internal/tracking"
)

type envelope struct {
	Kind Kind            `cbor:"1,keyasint"`
	Body cbor.RawMessage `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxArrayElements:  1 << 24,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode serializes p into a self-describing blob.
func Encode(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode: nil payload")
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.Kind(), err)
	}

	var body any
	switch v := p.(type) {
	case WorldMapPayload:
		body = v.Map
	case AnchorPayload:
		body = v.Anchor
	case *WorldMapPayload:
		body = v.Map
	case *AnchorPayload:
		body = v.Anchor
	default:
		return nil, fmt.Errorf("encode: unsupported payload %T", p)
	}

	raw, err := encMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", p.Kind(), err)
	}
	data, err := encMode.Marshal(envelope{Kind: p.Kind(), Body: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", p.Kind(), err)
	}
	if len(data) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	return data, nil
}

// EncodeWorldMap is Encode for a world map.
func EncodeWorldMap(m tracking.WorldMap) ([]byte, error) {
	return Encode(WorldMapPayload{Map: m})
}

// EncodeAnchor is Encode for an anchor.
func EncodeAnchor(a tracking.Anchor) ([]byte, error) {
	return Encode(AnchorPayload{Anchor: a})
}

// decoder accepts exactly one payload kind.
type decoder struct {
	kind   Kind
	decode func(body []byte) (Payload, error)
}

// decoders is tried in order; the first decoder that accepts wins.
var decoders = []decoder{
	{kind: KindWorldMap, decode: func(body []byte) (Payload, error) {
		var m tracking.WorldMap
		if err := decMode.Unmarshal(body, &m); err != nil {
			return nil, err
		}
		return WorldMapPayload{Map: m}, nil
	}},
	{kind: KindAnchor, decode: func(body []byte) (Payload, error) {
		var a tracking.Anchor
		if err := decMode.Unmarshal(body, &a); err != nil {
			return nil, err
		}
		return AnchorPayload{Anchor: a}, nil
	}},
}

// Decode returns the payload encoded in data. It fails with
// ErrUnknownPayload when data matches neither payload kind.
func Decode(data []byte) (Payload, error) {
	if len(data) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPayload, err)
	}

	for _, d := range decoders {
		if d.kind != env.Kind {
			continue
		}
		p, err := d.decode(env.Body)
		if err != nil {
			continue
		}
		if err := p.validate(); err != nil {
			continue
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPayload, env.Kind)
}
