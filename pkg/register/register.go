// package register translates domain names into operations on the
// shared-key registers backing antns: deterministic addressing,
// appends, history streaming, and the registration and update flows.
package register

import (
	"context"
	"errors"
	"fmt"

	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/crypto"
	"antns.org/antns-go/pkg/registerkey"
)

var (
	// ErrAlreadyRegistered: the name's register has a non-empty history.
	ErrAlreadyRegistered = errors.New("domain already registered")
	// ErrNotOwner: no local private key for the name.
	ErrNotOwner = errors.New("no local key for domain")
)

// KeyStore is the consumed interface for domain private keys.
type KeyStore interface {
	Put(domain string, priv crypto.PrivateKey) error
	// Get returns the key, or false if no key is stored for domain.
	Get(domain string) (crypto.PrivateKey, bool, error)
}

// Adapter binds the shared-base-key derivation to a CAS client.
// Domain names passed to its methods must be in normalized form (see
// pkg/name).
type Adapter struct {
	Client cas.Client
}

// AddressOf returns the register address for a domain name. It is a
// pure function of the name and the published base secret.
func AddressOf(domain string) cas.Address {
	pub := registerkey.DeriveRegisterKey(domain).Public()
	return cas.Address(pub.Address())
}

// Append adds a chunk address to the domain's register, creating the
// register with entry as its initial value if it doesn't exist yet.
// The register key is shared, so this works for anyone; ownership is
// enforced at resolution time, not append time.
func (a Adapter) Append(ctx context.Context, domain string, entry cas.Address, payment string) error {
	secret := registerkey.DeriveRegisterKey(domain)
	err := a.Client.RegisterAppend(ctx, secret, domain, entry, payment)
	if errors.Is(err, cas.ErrNotFound) {
		_, err = a.Client.RegisterCreate(ctx, secret, domain, entry, payment)
	}
	return err
}

// History opens the domain's register history stream.
func (a Adapter) History(ctx context.Context, domain string) (cas.HistoryStream, error) {
	return a.Client.RegisterHistory(ctx, AddressOf(domain))
}

// registered reports whether the domain's register has any entries.
func (a Adapter) registered(ctx context.Context, domain string) (bool, error) {
	stream, err := a.History(ctx, domain)
	if err != nil {
		return false, fmt.Errorf("reading register history: %w", err)
	}
	_, ok, err := stream.Next(ctx)
	if err != nil {
		return false, fmt.Errorf("reading register history: %w", err)
	}
	return ok, nil
}
