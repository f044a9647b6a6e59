// package document parses and emits the two chunk payloads of the
// antns protocol: the owner document (register entry 0) and the signed
// records documents appended after it. Wire encoding is ordinary JSON;
// signatures are always computed and checked over the canonical form
// of the records array, never over wire bytes.
package document

import (
	"encoding/json"
	"fmt"

	"antns.org/antns-go/pkg/canonical"
	"antns.org/antns-go/pkg/crypto"
	"antns.org/antns-go/pkg/hex"
)

// Record is a single domain record; see canonical.Record.
type Record = canonical.Record

// TypeAnt is the record type carrying a content chunk address. The
// type set is open; unrecognized types are preserved verbatim.
const TypeAnt = "ant"

// Apex is the record name denoting the domain itself.
const Apex = "."

// OwnerDocument declares a domain's ed25519 public key. It is written
// once, as the register's first entry, and never replaced.
type OwnerDocument struct {
	PublicKey crypto.PublicKey
}

type jsonOwner struct {
	PublicKey *string `json:"publicKey"`
}

func ParseOwnerDocument(data []byte) (OwnerDocument, error) {
	var raw jsonOwner
	if err := json.Unmarshal(data, &raw); err != nil {
		return OwnerDocument{}, fmt.Errorf("invalid owner document: %v", err)
	}
	if raw.PublicKey == nil {
		return OwnerDocument{}, fmt.Errorf("invalid owner document: missing publicKey")
	}
	b, err := hex.DeserializeSized(*raw.PublicKey, crypto.PublicKeySize)
	if err != nil {
		return OwnerDocument{}, fmt.Errorf("invalid owner public key: %v", err)
	}
	var doc OwnerDocument
	copy(doc.PublicKey[:], b)
	return doc, nil
}

func (doc *OwnerDocument) Marshal() ([]byte, error) {
	s := hex.Serialize(doc.PublicKey[:])
	return json.Marshal(jsonOwner{PublicKey: &s})
}

// RecordsDocument is a complete record set plus the owner's signature
// over its canonical serialization. Each document replaces the
// domain's record set wholesale; there is no diff semantics.
type RecordsDocument struct {
	Records   []Record
	Signature crypto.Signature
}

type jsonRecord struct {
	Type  *string `json:"type"`
	Name  *string `json:"name"`
	Value *string `json:"value"`
}

type jsonRecords struct {
	Records   []jsonRecord `json:"records"`
	Signature *string      `json:"signature"`
}

func ParseRecordsDocument(data []byte) (RecordsDocument, error) {
	var raw jsonRecords
	if err := json.Unmarshal(data, &raw); err != nil {
		return RecordsDocument{}, fmt.Errorf("invalid records document: %v", err)
	}
	if raw.Records == nil {
		return RecordsDocument{}, fmt.Errorf("invalid records document: missing records")
	}
	if raw.Signature == nil {
		return RecordsDocument{}, fmt.Errorf("invalid records document: missing signature")
	}
	if len(raw.Records) > canonical.DefaultMaxRecords {
		return RecordsDocument{}, fmt.Errorf("invalid records document: %d records exceeds limit %d",
			len(raw.Records), canonical.DefaultMaxRecords)
	}
	doc := RecordsDocument{Records: make([]Record, 0, len(raw.Records))}
	for i, r := range raw.Records {
		if r.Type == nil || r.Name == nil || r.Value == nil {
			return RecordsDocument{}, fmt.Errorf("invalid record at index %d: missing field", i)
		}
		doc.Records = append(doc.Records, Record{Type: *r.Type, Name: *r.Name, Value: *r.Value})
	}
	b, err := hex.DeserializeSized(*raw.Signature, crypto.SignatureSize)
	if err != nil {
		return RecordsDocument{}, fmt.Errorf("invalid signature: %v", err)
	}
	copy(doc.Signature[:], b)
	return doc, nil
}

func (doc *RecordsDocument) Marshal() ([]byte, error) {
	raw := jsonRecords{Records: make([]jsonRecord, 0, len(doc.Records))}
	for i := range doc.Records {
		r := &doc.Records[i]
		raw.Records = append(raw.Records, jsonRecord{Type: &r.Type, Name: &r.Name, Value: &r.Value})
	}
	s := hex.Serialize(doc.Signature[:])
	raw.Signature = &s
	return json.Marshal(raw)
}

// Verify checks the document's signature over the canonical form of
// its records under the domain owner's key.
func (doc *RecordsDocument) Verify(owner *crypto.PublicKey) bool {
	msg, err := canonical.Records(doc.Records)
	if err != nil {
		return false
	}
	return crypto.Verify(owner, msg, &doc.Signature)
}

// SignRecords builds a records document over records, signed by the
// domain owner.
func SignRecords(signer crypto.Signer, records []Record) (RecordsDocument, error) {
	msg, err := canonical.Records(records)
	if err != nil {
		return RecordsDocument{}, err
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return RecordsDocument{}, fmt.Errorf("signing records failed: %v", err)
	}
	return RecordsDocument{Records: records, Signature: sig}, nil
}

// FindRecord returns the first record matching name exactly and type
// case-insensitively (ascii), or nil.
func FindRecord(records []Record, recordType, name string) *Record {
	for i := range records {
		if records[i].Name == name && asciiEqualFold(records[i].Type, recordType) {
			return &records[i]
		}
	}
	return nil
}

func asciiEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
