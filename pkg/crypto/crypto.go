// package crypto provides the lowest-level crypto types and primitives
// used by antns: ed25519 keys and signatures over domain record sets.
package crypto

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	HashSize       = sha256.Size
	SignatureSize  = ed25519.SignatureSize
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.SeedSize
)

type (
	Hash       [HashSize]byte
	Signature  [SignatureSize]byte
	PublicKey  [PublicKeySize]byte
	PrivateKey [PrivateKeySize]byte
)

func HashBytes(b []byte) Hash {
	return sha256.Sum256(b)
}

func Verify(pub *PublicKey, msg []byte, sig *Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig[:])
}

func Sign(priv crypto.Signer, msg []byte) (Signature, error) {
	var ret Signature
	if _, ok := priv.Public().(ed25519.PublicKey); !ok {
		return ret, fmt.Errorf("internal error, unexpected signer type %T", priv.Public())
	}
	s, err := priv.Sign(nil, msg, crypto.Hash(0))
	if err != nil {
		return ret, err
	}
	if len(s) != SignatureSize {
		return ret, fmt.Errorf("internal error, unexpected signature size %d", len(s))
	}
	copy(ret[:], s)
	return ret, nil
}

// Signer is the interface used for all antns signing operations. The
// production implementation is Ed25519Signer; tests substitute failing
// signers.
type Signer interface {
	Sign(msg []byte) (Signature, error)
	Public() PublicKey
}

type Ed25519Signer struct {
	secret ed25519.PrivateKey
}

func NewEd25519Signer(key *PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{secret: ed25519.NewKeyFromSeed(key[:])}
}

func (s *Ed25519Signer) Sign(msg []byte) (Signature, error) {
	return Sign(s.secret, msg)
}

func (s *Ed25519Signer) Public() (pub PublicKey) {
	copy(pub[:], s.secret.Public().(ed25519.PublicKey))
	return
}

func (s *Ed25519Signer) Private() (priv PrivateKey) {
	copy(priv[:], s.secret.Seed())
	return
}

// NewKeyPair generates a fresh domain keypair from crypto/rand.
func NewKeyPair() (PublicKey, *Ed25519Signer, error) {
	var seed PrivateKey
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return PublicKey{}, nil, err
	}
	signer := NewEd25519Signer(&seed)
	return signer.Public(), signer, nil
}

func decodeHex(s string, size int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("unexpected length of hex data, expected %d, got %d", size, len(b))
	}
	return b, nil
}

func HashFromHex(s string) (h Hash, err error) {
	var b []byte
	b, err = decodeHex(s, HashSize)
	copy(h[:], b)
	return
}

func PublicKeyFromHex(s string) (pub PublicKey, err error) {
	var b []byte
	b, err = decodeHex(s, PublicKeySize)
	copy(pub[:], b)
	return
}

func SignatureFromHex(s string) (sig Signature, err error) {
	var b []byte
	b, err = decodeHex(s, SignatureSize)
	copy(sig[:], b)
	return
}

func PrivateKeyFromHex(s string) (priv PrivateKey, err error) {
	var b []byte
	b, err = decodeHex(s, PrivateKeySize)
	copy(priv[:], b)
	return
}
