package peer

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

var errReplay = errors.New("unexpected frame sequence")

type keyPair struct {
	priv [32]byte
	pub  [32]byte
}

func newKeyPair() (keyPair, error) {
	var kp keyPair
	if _, err := rand.Read(kp.priv[:]); err != nil {
		return kp, err
	}
	// RFC 7748 clamping
	kp.priv[0] &= 248
	kp.priv[31] &= 127
	kp.priv[31] |= 64

	pub, err := curve25519.X25519(kp.priv[:], curve25519.Basepoint)
	if err != nil {
		return kp, err
	}
	copy(kp.pub[:], pub)
	return kp, nil
}

// deriveCiphers agrees on one key per direction. The initiator is the
// browsing side that dialed; both sides salt HKDF with
// initiatorPub || responderPub so they derive the same pair.
func deriveCiphers(local keyPair, remotePub []byte, initiator bool, serviceType string) (*sealer, *opener, error) {
	if len(remotePub) != curve25519.PointSize {
		return nil, nil, fmt.Errorf("remote key has %d bytes", len(remotePub))
	}
	shared, err := curve25519.X25519(local.priv[:], remotePub)
	if err != nil {
		return nil, nil, fmt.Errorf("key agreement: %w", err)
	}

	salt := make([]byte, 0, 2*curve25519.PointSize)
	if initiator {
		salt = append(append(salt, local.pub[:]...), remotePub...)
	} else {
		salt = append(append(salt, remotePub...), local.pub[:]...)
	}

	keys := make([]byte, 2*chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, shared, salt, []byte("arshare session "+serviceType))
	if _, err := io.ReadFull(kdf, keys); err != nil {
		return nil, nil, fmt.Errorf("derive keys: %w", err)
	}

	toResponder, err := chacha20poly1305.New(keys[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, nil, err
	}
	toInitiator, err := chacha20poly1305.New(keys[chacha20poly1305.KeySize:])
	if err != nil {
		return nil, nil, err
	}

	if initiator {
		return &sealer{aead: toResponder}, &opener{aead: toInitiator}, nil
	}
	return &sealer{aead: toInitiator}, &opener{aead: toResponder}, nil
}

// sealer encrypts outbound frames. The nonce is a counter, so a sealer
// must only be used from one goroutine.
type sealer struct {
	aead cipher.AEAD
	seq  uint64
}

func (s *sealer) seal(plain []byte) []byte {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	binary.BigEndian.PutUint64(nonce[len(nonce)-8:], s.seq)
	s.seq++
	return s.aead.Seal(nonce, nonce, plain, nil)
}

// opener decrypts inbound frames and enforces strictly increasing counters.
type opener struct {
	aead cipher.AEAD
	seq  uint64
}

func (o *opener) open(msg []byte) ([]byte, error) {
	ns := o.aead.NonceSize()
	if len(msg) < ns+o.aead.Overhead() {
		return nil, errors.New("sealed frame too short")
	}
	nonce := msg[:ns]
	for _, b := range nonce[:ns-8] {
		if b != 0 {
			return nil, errReplay
		}
	}
	if binary.BigEndian.Uint64(nonce[ns-8:]) != o.seq {
		return nil, errReplay
	}

	plain, err := o.aead.Open(nil, nonce, msg[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	o.seq++
	return plain, nil
}
