// package resolver reconstructs a domain's current record set from
// its register history. The register is an untrusted append log:
// anyone can add entries, so the resolver verifies every entry against
// the owner document's key and keeps the newest one that verifies.
// State is a pure function of the last valid entry; spam before,
// between or after valid entries only shows up in the counters.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/crypto"
	"antns.org/antns-go/pkg/document"
	"antns.org/antns-go/pkg/log"
	"antns.org/antns-go/pkg/register"
)

var (
	// ErrNotRegistered: the name's register has no entries.
	ErrNotRegistered = errors.New("domain not registered")
	// ErrCorrupt: entry 0 is unreadable or not a valid owner
	// document. A systemic failure of the domain, unlike spam, which
	// is a failure of one entry.
	ErrCorrupt = errors.New("domain corrupt")
	// ErrUnavailable: the network failed mid-resolution. Partial
	// results are never returned or cached.
	ErrUnavailable = cas.ErrUnavailable
)

const (
	DefaultChunkTimeout   = 30 * time.Second
	DefaultHistoryTimeout = 30 * time.Second
)

type Config struct {
	// Per-chunk fetch deadline; DefaultChunkTimeout if zero.
	ChunkTimeout time.Duration
	// Ceiling on walking the register history as a whole, on top of
	// the individual fetches; DefaultHistoryTimeout if zero.
	HistoryTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ChunkTimeout == 0 {
		c.ChunkTimeout = DefaultChunkTimeout
	}
	if c.HistoryTimeout == 0 {
		c.HistoryTimeout = DefaultHistoryTimeout
	}
	return c
}

// Resolved is the reconstructed state of a domain.
type Resolved struct {
	Domain string
	Owner  crypto.PublicKey
	// Records of the newest entry that verifies; empty for a domain
	// with no valid entries after the owner document.
	Records []document.Record
	// Register entries inspected after entry 0.
	EntriesInspected int
	ValidCount       int
	SpamCount        int
}

type Resolver struct {
	adapter register.Adapter
	config  Config
}

func New(client cas.Client, config Config) *Resolver {
	return &Resolver{adapter: register.Adapter{Client: client}, config: config.withDefaults()}
}

func (r *Resolver) fetch(ctx context.Context, addr cas.Address) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.ChunkTimeout)
	defer cancel()
	return r.adapter.Client.ChunkGet(ctx, addr)
}

// openHistory positions a fresh history stream past entry 0 and
// returns the parsed owner key together with the stream.
func (r *Resolver) openHistory(ctx context.Context, domain string) (cas.HistoryStream, crypto.PublicKey, cas.Address, error) {
	stream, err := r.adapter.History(ctx, domain)
	if err != nil {
		return nil, crypto.PublicKey{}, cas.Address{}, fmt.Errorf("%w: opening history for %q: %v", ErrUnavailable, domain, err)
	}
	ownerAddr, ok, err := stream.Next(ctx)
	if err != nil {
		return nil, crypto.PublicKey{}, cas.Address{}, fmt.Errorf("%w: reading history for %q: %v", ErrUnavailable, domain, err)
	}
	if !ok {
		return nil, crypto.PublicKey{}, cas.Address{}, fmt.Errorf("%w: %q", ErrNotRegistered, domain)
	}
	ownerData, err := r.fetch(ctx, ownerAddr)
	if err != nil {
		return nil, crypto.PublicKey{}, cas.Address{}, fmt.Errorf("%w: owner chunk %s unreadable: %v", ErrCorrupt, ownerAddr, err)
	}
	ownerDoc, err := document.ParseOwnerDocument(ownerData)
	if err != nil {
		return nil, crypto.PublicKey{}, cas.Address{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return stream, ownerDoc.PublicKey, ownerAddr, nil
}

// Resolve walks the full register history of a (normalized) domain
// name and returns the current state. A domain whose register holds
// only the owner document resolves to an empty record set, not an
// error.
func (r *Resolver) Resolve(ctx context.Context, domain string) (Resolved, error) {
	walkCtx, cancel := context.WithTimeout(ctx, r.config.HistoryTimeout)
	defer cancel()

	stream, owner, _, err := r.openHistory(walkCtx, domain)
	if err != nil {
		return Resolved{}, err
	}

	res := Resolved{Domain: domain, Owner: owner, Records: []document.Record{}}
	for {
		addr, ok, err := stream.Next(walkCtx)
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: walking history for %q: %v", ErrUnavailable, domain, err)
		}
		if !ok {
			break
		}
		res.EntriesInspected++

		data, err := r.fetch(ctx, addr)
		if err != nil {
			// Unlike a bad entry, a fetch failure hides an
			// entry that could be the newest valid one, so the
			// whole resolution fails.
			return Resolved{}, fmt.Errorf("%w: fetching entry %s: %v", ErrUnavailable, addr, err)
		}
		doc, err := document.ParseRecordsDocument(data)
		if err != nil {
			log.Debug("resolve %q: entry %s unparseable: %v", domain, addr, err)
			res.SpamCount++
			continue
		}
		if !doc.Verify(&owner) {
			log.Debug("resolve %q: entry %s has invalid signature", domain, addr)
			res.SpamCount++
			continue
		}
		res.Records = doc.Records
		res.ValidCount++
	}
	log.Debug("resolved %q: %d entries, %d valid, %d spam",
		domain, res.EntriesInspected, res.ValidCount, res.SpamCount)
	return res, nil
}
