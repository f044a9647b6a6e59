package name

import (
	"strings"
	"testing"
)

func TestNormalizeValid(t *testing.T) {
	for _, table := range []struct {
		in   string
		want string
	}{
		{"example.ant", "example.ant"},
		{"Example.ant", "example.ant"},
		{"EXAMPLE.ANT", "example.ant"},
		{"example.ant.", "example.ant"},
		{"a.ant", "a.ant"},
		{"my-domain.ant", "my-domain.ant"},
		{"x123.ant", "x123.ant"},
		{"räksmörgås.ant", "xn--rksmrgs-5wao1o.ant"},
	} {
		got, err := Normalize(table.in)
		if err != nil {
			t.Errorf("normalizing %q: %v", table.in, err)
			continue
		}
		if got != table.want {
			t.Errorf("normalizing %q: got %q, wanted %q", table.in, got, table.want)
		}
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"example",
		"example.com",
		".ant",
		"a.b.ant",
		"-leading.ant",
		"trailing-.ant",
		"under_score.ant",
		"spa ce.ant",
		strings.Repeat("a", 64) + ".ant",
	} {
		if got, err := Normalize(in); err == nil {
			t.Errorf("no error normalizing invalid name %q, got %q", in, got)
		}
	}
}

func TestInZone(t *testing.T) {
	for _, table := range []struct {
		in   string
		want bool
	}{
		{"example.ant", true},
		{"example.ant.", true},
		{"EXAMPLE.ANT.", true},
		{"example.com", false},
		{"ant", false},
		{"example.antler", false},
	} {
		if got := InZone(table.in); got != table.want {
			t.Errorf("InZone(%q): got %v, wanted %v", table.in, got, table.want)
		}
	}
}
