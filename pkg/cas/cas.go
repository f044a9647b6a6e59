// package cas defines the interface antns consumes from the
// underlying content-addressable storage network: immutable chunks
// plus append-only registers addressed by a signing key. The network
// client itself lives outside this module; casmem provides an
// in-memory implementation for tests and local experiments.
package cas

import (
	"context"
	"errors"
	"fmt"

	"antns.org/antns-go/pkg/hex"
	"antns.org/antns-go/pkg/registerkey"
)

const AddressSize = 32

// Address identifies a chunk or a register on the network; rendered as
// 64 characters of lower-case hex on the wire.
type Address [AddressSize]byte

func (a Address) String() string {
	return hex.Serialize(a[:])
}

func AddressFromHex(s string) (Address, error) {
	b, err := hex.DeserializeSized(s, AddressSize)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address: %v", err)
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// Error kinds a client implementation is expected to surface. Other
// errors are treated like ErrUnavailable by callers.
var (
	// ErrNotFound: no chunk or register at the address.
	ErrNotFound = errors.New("not found")
	// ErrPayment: the network rejected or could not complete payment.
	ErrPayment = errors.New("payment failed")
	// ErrUnavailable: transport failure or timeout; retryable.
	ErrUnavailable = errors.New("network unavailable")
)

// HistoryStream yields register entries in on-register order, starting
// at index 0. A stream is single-use; it cannot be restarted.
type HistoryStream interface {
	// Next returns the next entry. The second result is false at the
	// end of the register. An error ends the stream; callers must not
	// interpret a failed stream as a short register.
	Next(ctx context.Context) (Address, bool, error)
}

// Client is the consumed network interface. Payment is an opaque
// string handed through to the network layer (empty means the client's
// default wallet flow).
type Client interface {
	ChunkPut(ctx context.Context, data []byte, payment string) (Address, error)
	ChunkGet(ctx context.Context, addr Address) ([]byte, error)

	// RegisterCreate creates the register owned by secret, named by the
	// UTF-8 bytes of name, with initial as its first entry.
	RegisterCreate(ctx context.Context, secret *registerkey.Secret, name string, initial Address, payment string) (Address, error)
	RegisterAppend(ctx context.Context, secret *registerkey.Secret, name string, entry Address, payment string) error
	RegisterHistory(ctx context.Context, registerAddr Address) (HistoryStream, error)
}
