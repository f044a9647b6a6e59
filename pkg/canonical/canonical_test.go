package canonical

import (
	"encoding/json"
	"testing"
)

func TestRecordsKnownBytes(t *testing.T) {
	got, err := Records([]Record{{Type: "ant", Name: ".", Value: "abc123"}})
	if err != nil {
		t.Fatalf("canonicalization failed: %v", err)
	}
	want := `[{"name":".","type":"ant","value":"abc123"}]`
	if string(got) != want {
		t.Errorf("got %q, wanted %q", got, want)
	}
}

func TestRecordsEmpty(t *testing.T) {
	got, err := Records(nil)
	if err != nil {
		t.Fatalf("canonicalization failed: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("got %q, wanted []", got)
	}
}

func TestRecordsEscaping(t *testing.T) {
	for _, table := range []struct {
		desc string
		in   Record
		want string
	}{
		{"quote", Record{Type: "text", Name: "q", Value: `say "hi"`},
			`[{"name":"q","type":"text","value":"say \"hi\""}]`},
		{"backslash", Record{Type: "text", Name: "b", Value: `a\b`},
			`[{"name":"b","type":"text","value":"a\\b"}]`},
		{"newline and tab", Record{Type: "text", Name: "c", Value: "a\n\tb"},
			`[{"name":"c","type":"text","value":"a\n\tb"}]`},
		{"low control", Record{Type: "text", Name: "d", Value: "a\x01b\x1fc"},
			`[{"name":"d","type":"text","value":"a\u0001b\u001fc"}]`},
		{"non-ascii verbatim", Record{Type: "text", Name: "e", Value: "räksmörgås ☃"},
			`[{"name":"e","type":"text","value":"räksmörgås ☃"}]`},
	} {
		got, err := RecordsMax([]Record{table.in}, 10)
		if err != nil {
			t.Errorf("%s: canonicalization failed: %v", table.desc, err)
			continue
		}
		if string(got) != table.want {
			t.Errorf("%s: got %q, wanted %q", table.desc, got, table.want)
		}
	}
}

// Canonical output must itself be valid JSON that round-trips to the
// same canonical bytes.
func TestRecordsRoundtrip(t *testing.T) {
	records := []Record{
		{Type: "ant", Name: ".", Value: "a33082163be512fb471a1cca385332b32c19917deec3989a97e100d827f97baf"},
		{Type: "text", Name: "info", Value: "tricky \"value\" with \\ and ü"},
		{Type: "cname", Name: "www", Value: "."},
	}
	first, err := Records(records)
	if err != nil {
		t.Fatalf("canonicalization failed: %v", err)
	}
	var parsed []struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(first, &parsed); err != nil {
		t.Fatalf("canonical output is not valid JSON: %v", err)
	}
	reparsed := make([]Record, len(parsed))
	for i, r := range parsed {
		reparsed[i] = Record{Type: r.Type, Name: r.Name, Value: r.Value}
	}
	second, err := Records(reparsed)
	if err != nil {
		t.Fatalf("re-canonicalization failed: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("canonicalization not stable:\n%q\n%q", first, second)
	}
}

func TestRecordsMaxBound(t *testing.T) {
	records := make([]Record, 5)
	if _, err := RecordsMax(records, 4); err == nil {
		t.Errorf("no error for array above bound")
	}
	if _, err := RecordsMax(records, 5); err != nil {
		t.Errorf("unexpected error at bound: %v", err)
	}
	big := make([]Record, DefaultMaxRecords+1)
	if _, err := Records(big); err == nil {
		t.Errorf("no error above default bound")
	}
}
