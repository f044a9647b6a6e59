// package keystore stores domain private keys on disk, one file per
// name, under <base>/user_data/domain-keys/. Keys are 32 bytes of
// lower-case hex; a small metadata file next to each key records the
// domain, its public key, and the creation time.
package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dchest/safefile"

	"antns.org/antns-go/pkg/crypto"
	"antns.org/antns-go/pkg/hex"
)

const (
	keyPrefix  = "domain-key-"
	keySuffix  = ".txt"
	metaPrefix = "domain-meta-"
	metaSuffix = ".json"
)

// DefaultBaseDir is the conventional client data directory shared with
// the other network tooling.
func DefaultBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %v", err)
	}
	return filepath.Join(home, ".local", "share", "autonomi", "client"), nil
}

type Store struct {
	dir string
}

// New opens a key store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{dir: filepath.Join(baseDir, "user_data", "domain-keys")}
}

// Dir returns the directory holding the key files.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) keyFile(domain string) string {
	return filepath.Join(s.dir, keyPrefix+domain+keySuffix)
}

func (s *Store) metaFile(domain string) string {
	return filepath.Join(s.dir, metaPrefix+domain+metaSuffix)
}

type metadata struct {
	Domain    string `json:"domain"`
	PublicKey string `json:"publicKey"`
	Created   string `json:"created"`
}

// Put stores the private key for domain, replacing any previous key.
// Both files are written atomically; key files are private to the
// user.
func (s *Store) Put(domain string, priv crypto.PrivateKey) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating key directory: %v", err)
	}
	if err := safefile.WriteFile(s.keyFile(domain), []byte(hex.Serialize(priv[:])+"\n"), 0600); err != nil {
		return fmt.Errorf("writing key file: %v", err)
	}
	pub := crypto.NewEd25519Signer(&priv).Public()
	meta, err := json.MarshalIndent(metadata{
		Domain:    domain,
		PublicKey: hex.Serialize(pub[:]),
		Created:   time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := safefile.WriteFile(s.metaFile(domain), append(meta, '\n'), 0600); err != nil {
		return fmt.Errorf("writing metadata file: %v", err)
	}
	return nil
}

// Get loads the private key for domain; the second result is false
// when no key is stored.
func (s *Store) Get(domain string) (crypto.PrivateKey, bool, error) {
	data, err := os.ReadFile(s.keyFile(domain))
	if os.IsNotExist(err) {
		return crypto.PrivateKey{}, false, nil
	}
	if err != nil {
		return crypto.PrivateKey{}, false, fmt.Errorf("reading key file: %v", err)
	}
	priv, err := crypto.PrivateKeyFromHex(strings.TrimSpace(string(data)))
	if err != nil {
		return crypto.PrivateKey{}, false, fmt.Errorf("key file for %q: %v", domain, err)
	}
	return priv, true, nil
}

// List returns the stored domain names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading key directory: %v", err)
	}
	var domains []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, keyPrefix) || !strings.HasSuffix(name, keySuffix) {
			continue
		}
		domains = append(domains, strings.TrimSuffix(strings.TrimPrefix(name, keyPrefix), keySuffix))
	}
	sort.Strings(domains)
	return domains, nil
}
