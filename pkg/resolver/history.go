package resolver

import (
	"context"
	"fmt"

	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/crypto"
	"antns.org/antns-go/pkg/document"
	"antns.org/antns-go/pkg/log"
)

// Reasons an entry doesn't count towards resolution.
const (
	ReasonFetch     = "fetch"
	ReasonParse     = "parse"
	ReasonSignature = "signature"
)

// Entry describes one register entry in a history listing.
type Entry struct {
	Index   int
	Address cas.Address
	// Owner is true for entry 0.
	Owner bool
	Valid bool
	// Reason the entry is invalid: ReasonFetch, ReasonParse or
	// ReasonSignature. Empty for valid entries.
	Reason string
	// Records carried by the entry, when it parsed.
	Records []document.Record
}

// HistoryStats summarizes a history listing.
type HistoryStats struct {
	Total int
	Valid int
	Spam  int
}

func Stats(entries []Entry) HistoryStats {
	s := HistoryStats{Total: len(entries)}
	for _, e := range entries {
		switch {
		case e.Owner:
		case e.Valid:
			s.Valid++
		default:
			s.Spam++
		}
	}
	return s
}

// History lists every register entry of a domain with its validation
// status. Unlike Resolve, a failed chunk fetch doesn't abort the
// listing; the entry is reported with ReasonFetch, since the listing
// is diagnostic, not authoritative state.
func (r *Resolver) History(ctx context.Context, domain string) ([]Entry, crypto.PublicKey, error) {
	walkCtx, cancel := context.WithTimeout(ctx, r.config.HistoryTimeout)
	defer cancel()

	stream, owner, ownerAddr, err := r.openHistory(walkCtx, domain)
	if err != nil {
		return nil, crypto.PublicKey{}, err
	}

	entries := []Entry{{Index: 0, Address: ownerAddr, Owner: true, Valid: true}}
	for {
		addr, ok, err := stream.Next(walkCtx)
		if err != nil {
			return nil, crypto.PublicKey{}, fmt.Errorf("%w: walking history for %q: %v", ErrUnavailable, domain, err)
		}
		if !ok {
			break
		}
		entry := Entry{Index: len(entries), Address: addr}

		data, err := r.fetch(ctx, addr)
		if err != nil {
			log.Debug("history %q: entry %s unreadable: %v", domain, addr, err)
			entry.Reason = ReasonFetch
			entries = append(entries, entry)
			continue
		}
		doc, err := document.ParseRecordsDocument(data)
		if err != nil {
			entry.Reason = ReasonParse
			entries = append(entries, entry)
			continue
		}
		entry.Records = doc.Records
		if doc.Verify(&owner) {
			entry.Valid = true
		} else {
			entry.Reason = ReasonSignature
		}
		entries = append(entries, entry)
	}
	return entries, owner, nil
}
