// package name validates and normalizes domain names under the antns
// top-level suffix.
package name

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

// TLD is the suffix all antns names live under.
const TLD = ".ant"

const maxLabelLen = 63

// Normalize maps a user-supplied domain name to its canonical form:
// NFKC, lowercase, a-label (ascii) encoding, no trailing dot. The
// result is the exact string used for register-key derivation.
func Normalize(domain string) (string, error) {
	domain = strings.TrimSuffix(domain, ".")
	n := norm.NFKC.String(domain)
	l := strings.ToLower(n)
	a, err := idna.ToASCII(l)
	if err != nil {
		return "", fmt.Errorf("failed converting domain %q to a-label form: %v", l, err)
	}
	if err := check(a); err != nil {
		return "", err
	}
	return a, nil
}

// check enforces the shape LABEL.ant with a single DNS-safe label.
func check(domain string) error {
	label, ok := strings.CutSuffix(domain, TLD)
	if !ok {
		return fmt.Errorf("domain %q is outside the %s zone", domain, TLD)
	}
	if len(label) == 0 {
		return fmt.Errorf("domain %q has an empty label", domain)
	}
	if len(label) > maxLabelLen {
		return fmt.Errorf("domain label %q exceeds %d characters", label, maxLabelLen)
	}
	if strings.Contains(label, ".") {
		return fmt.Errorf("domain %q has more than one label; subdomains are not supported", domain)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("domain label %q starts or ends with a hyphen", label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' {
			continue
		}
		return fmt.Errorf("domain label %q has invalid character %q", label, c)
	}
	return nil
}

// InZone reports whether a (possibly fully-qualified) query name
// belongs to the antns zone. Used on the hot DNS and proxy paths where
// full normalization isn't needed to reject foreign names.
func InZone(domain string) bool {
	domain = strings.TrimSuffix(domain, ".")
	return strings.HasSuffix(strings.ToLower(domain), TLD)
}
