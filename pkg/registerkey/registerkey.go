// package registerkey derives the shared register signing keys that
// make antns registers discoverable. Every implementation derives a
// domain's register key from the same published base secret, so every
// implementation arrives at the same register address for a given
// name. The keys are BLS12-381 secrets, as required by the underlying
// register network; they control register placement only and have no
// role in domain ownership.
package registerkey

import (
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/sha3"

	"antns.org/antns-go/pkg/hex"
)

// SharedBaseSecretHex is the fixed base secret all register keys are
// derived from. Publishing it is the point: anyone can derive any
// domain's register address, and anyone can append.
const SharedBaseSecretHex = "055f218d56343b8ff7f4ebf5ba8f137c27a634add32c6174c63fab7df204271a"

const (
	SecretSize    = fr.Bytes                            // 32
	PublicKeySize = bls12381.SizeOfG1AffineCompressed   // 48
	AddressSize   = 32
)

type PublicKey [PublicKeySize]byte

// Secret is a BLS12-381 secret key, i.e., a scalar.
type Secret struct {
	scalar fr.Element
}

func SecretFromBytes(b []byte) (*Secret, error) {
	if len(b) != SecretSize {
		return nil, fmt.Errorf("registerkey: unexpected secret length %d, expected %d", len(b), SecretSize)
	}
	i := new(big.Int).SetBytes(b)
	if i.Sign() == 0 {
		return nil, fmt.Errorf("registerkey: secret is zero")
	}
	if i.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("registerkey: secret is not a valid scalar")
	}
	var s Secret
	s.scalar.SetBigInt(i)
	return &s, nil
}

func SecretFromHex(str string) (*Secret, error) {
	b, err := hex.DeserializeSized(str, SecretSize)
	if err != nil {
		return nil, err
	}
	return SecretFromBytes(b)
}

// SharedBaseSecret returns the published base secret.
func SharedBaseSecret() *Secret {
	s, err := SecretFromHex(SharedBaseSecretHex)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in base secret: %v", err))
	}
	return s
}

// Derive returns the child secret bound to the UTF-8 bytes of index.
// The construction is child = SHA3-256(secret_be32 || index) reduced
// mod the scalar-field order; it must not change, since independent
// implementations have to derive identical register keys.
func (s *Secret) Derive(index string) *Secret {
	h := sha3.New256()
	buf := s.scalar.Bytes()
	h.Write(buf[:])
	h.Write([]byte(index))
	digest := h.Sum(nil)

	i := new(big.Int).SetBytes(digest)
	i.Mod(i, fr.Modulus())
	var child Secret
	child.scalar.SetBigInt(i)
	return &child
}

// Public returns the compressed G1 public key of the secret.
func (s *Secret) Public() PublicKey {
	var i big.Int
	s.scalar.BigInt(&i)
	_, _, g1, _ := bls12381.Generators()
	var p bls12381.G1Affine
	p.ScalarMultiplication(&g1, &i)
	return PublicKey(p.Bytes())
}

func (s *Secret) Bytes() [SecretSize]byte {
	return s.scalar.Bytes()
}

// Address returns the register address owned by the key: the network's
// hash (SHA3-256) of the compressed public key bytes.
func (p *PublicKey) Address() (addr [AddressSize]byte) {
	return sha3.Sum256(p[:])
}

// DeriveRegisterKey is the full name-to-register-key derivation over
// the published base secret.
func DeriveRegisterKey(domain string) *Secret {
	return SharedBaseSecret().Derive(domain)
}
