package register

import (
	"context"
	"fmt"

	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/crypto"
	"antns.org/antns-go/pkg/document"
	"antns.org/antns-go/pkg/log"
)

// UpdateDomain publishes a new complete record set for a domain owned
// locally. Returns the address of the published records chunk.
//
// An update on a domain whose registration stopped half way (register
// created, no records entry yet) completes the registration.
func (a Adapter) UpdateDomain(ctx context.Context, ks KeyStore, domain string, records []document.Record, payment string) (cas.Address, error) {
	priv, ok, err := ks.Get(domain)
	if err != nil {
		return cas.Address{}, fmt.Errorf("loading domain key: %v", err)
	}
	if !ok {
		return cas.Address{}, fmt.Errorf("%q: %w", domain, ErrNotOwner)
	}
	signer := crypto.NewEd25519Signer(&priv)

	doc, err := document.SignRecords(signer, records)
	if err != nil {
		return cas.Address{}, err
	}
	data, err := doc.Marshal()
	if err != nil {
		return cas.Address{}, err
	}
	addr, err := a.Client.ChunkPut(ctx, data, payment)
	if err != nil {
		return cas.Address{}, fmt.Errorf("uploading records document: %w", err)
	}
	if err := a.Append(ctx, domain, addr, payment); err != nil {
		return cas.Address{}, fmt.Errorf("appending records: %w", err)
	}
	log.Debug("updated %q, records chunk %s", domain, addr)
	return addr, nil
}
