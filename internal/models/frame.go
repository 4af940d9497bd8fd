package models

// FrameKind distinguishes the transfer types a peer session can carry.
type FrameKind uint8

const (
	FrameKindHello FrameKind = iota + 1
	FrameKindData
	FrameKindStream
	FrameKindResource
)

func (k FrameKind) String() string {
	switch k {
	case FrameKindHello:
		return "hello"
	case FrameKindData:
		return "data"
	case FrameKindStream:
		return "stream"
	case FrameKindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Hello is the clear-text handshake frame. Key is the sender's X25519 public key.
type Hello struct {
	Peer        PeerID `cbor:"1,keyasint"`
	ServiceType string `cbor:"2,keyasint"`
	Key         []byte `cbor:"3,keyasint"`
}

// Frame is the sealed unit exchanged after the handshake.
type Frame struct {
	Kind FrameKind `cbor:"1,keyasint"`
	Name string    `cbor:"2,keyasint,omitempty"` // stream or resource name
	Data []byte    `cbor:"3,keyasint,omitempty"`
}
