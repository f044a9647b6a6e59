package register

import (
	"context"
	"fmt"

	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/crypto"
	"antns.org/antns-go/pkg/document"
	"antns.org/antns-go/pkg/log"
)

// Registration is the outcome of a successful domain registration.
type Registration struct {
	Domain          string
	PublicKey       crypto.PublicKey
	RegisterAddress cas.Address
	OwnerAddress    cas.Address
	RecordsAddress  cas.Address
}

// RegisterDomain claims a free name: generates the domain keypair,
// persists the private key, publishes the owner document as the
// register's first entry and the initial signed record set as its
// second.
//
// The steps are not transactional across the network. If the register
// is created but the records append fails, the domain is registered
// but empty, and a later update completes it. If the key is persisted
// but the register create fails, the stored key is orphaned and may be
// discarded.
func (a Adapter) RegisterDomain(ctx context.Context, ks KeyStore, domain string, records []document.Record, payment string) (Registration, error) {
	if ok, err := a.registered(ctx, domain); err != nil {
		return Registration{}, err
	} else if ok {
		return Registration{}, fmt.Errorf("%q: %w", domain, ErrAlreadyRegistered)
	}

	pub, signer, err := crypto.NewKeyPair()
	if err != nil {
		return Registration{}, fmt.Errorf("generating domain key: %v", err)
	}
	priv := signer.Private()
	if err := ks.Put(domain, priv); err != nil {
		return Registration{}, fmt.Errorf("storing domain key: %v", err)
	}

	ownerDoc := document.OwnerDocument{PublicKey: pub}
	ownerData, err := ownerDoc.Marshal()
	if err != nil {
		return Registration{}, err
	}
	ownerAddr, err := a.Client.ChunkPut(ctx, ownerData, payment)
	if err != nil {
		return Registration{}, fmt.Errorf("uploading owner document: %w", err)
	}
	log.Debug("owner document for %q at chunk %s", domain, ownerAddr)

	if err := a.Append(ctx, domain, ownerAddr, payment); err != nil {
		return Registration{}, fmt.Errorf("creating register: %w", err)
	}

	recordsDoc, err := document.SignRecords(signer, records)
	if err != nil {
		return Registration{}, err
	}
	recordsData, err := recordsDoc.Marshal()
	if err != nil {
		return Registration{}, err
	}
	recordsAddr, err := a.Client.ChunkPut(ctx, recordsData, payment)
	if err != nil {
		return Registration{}, fmt.Errorf("uploading records document: %w", err)
	}
	if err := a.Append(ctx, domain, recordsAddr, payment); err != nil {
		return Registration{}, fmt.Errorf("appending records: %w", err)
	}

	log.Info("registered %q, register %s", domain, AddressOf(domain))
	return Registration{
		Domain:          domain,
		PublicKey:       pub,
		RegisterAddress: AddressOf(domain),
		OwnerAddress:    ownerAddr,
		RecordsAddress:  recordsAddr,
	}, nil
}
