package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"antns.org/antns-go/pkg/cache"
	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/cas/casmem"
	"antns.org/antns-go/pkg/crypto"
	"antns.org/antns-go/pkg/document"
	"antns.org/antns-go/pkg/register"
	"antns.org/antns-go/pkg/resolver"
)

type fixture struct {
	store  *casmem.Store
	server *Server
}

func newFixture(t *testing.T, config Config) *fixture {
	t.Helper()
	store := casmem.New()
	c := cache.New(resolver.New(store, resolver.Config{}), cache.Config{TTL: time.Hour})
	config.Addr = "127.0.0.1:0"
	config.Cache = c
	config.CAS = store
	return &fixture{store: store, server: New(config)}
}

// registerDomain publishes a domain pointing at content.
func (f *fixture) registerDomain(t *testing.T, domain string, content []byte) {
	t.Helper()
	ctx := context.Background()
	contentAddr, err := f.store.ChunkPut(ctx, content, "")
	if err != nil {
		t.Fatal(err)
	}
	f.publish(t, domain, []document.Record{
		{Type: "ant", Name: ".", Value: contentAddr.String()},
	})
}

func (f *fixture) publish(t *testing.T, domain string, records []document.Record) {
	t.Helper()
	ctx := context.Background()
	adapter := register.Adapter{Client: f.store}
	signer := crypto.NewEd25519Signer(&crypto.PrivateKey{5})

	if f.store.Len(register.AddressOf(domain)) == 0 {
		ownerDoc := document.OwnerDocument{PublicKey: signer.Public()}
		ownerData, _ := ownerDoc.Marshal()
		ownerAddr, err := f.store.ChunkPut(ctx, ownerData, "")
		if err != nil {
			t.Fatal(err)
		}
		if err := adapter.Append(ctx, domain, ownerAddr, ""); err != nil {
			t.Fatal(err)
		}
	}
	doc, err := document.SignRecords(signer, records)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := doc.Marshal()
	addr, err := f.store.ChunkPut(ctx, data, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := adapter.Append(ctx, domain, addr, ""); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) request(host, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "http://"+host+path, nil)
	req.Host = host
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	return w
}

func TestForeignHostMisdirected(t *testing.T) {
	f := newFixture(t, Config{})
	for _, host := range []string{"example.com", "example.com:8080", "localhost"} {
		if w := f.request(host, "/"); w.Code != http.StatusMisdirectedRequest {
			t.Errorf("host %q: got %d, wanted 421", host, w.Code)
		}
	}
}

func TestNotRegistered(t *testing.T) {
	f := newFixture(t, Config{})
	if w := f.request("missing.ant", "/"); w.Code != http.StatusNotFound {
		t.Errorf("got %d, wanted 404", w.Code)
	}
}

func TestServesChunkContent(t *testing.T) {
	f := newFixture(t, Config{})
	content := []byte("<html><body>hello antns</body></html>")
	f.registerDomain(t, "example.ant", content)

	w := f.request("example.ant", "/")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, wanted 200: %s", w.Code, w.Body.String())
	}
	body, _ := io.ReadAll(w.Body)
	if string(body) != string(content) {
		t.Errorf("wrong body: %q", body)
	}
	if got := w.Header().Get("X-Antns-Domain"); got != "example.ant" {
		t.Errorf("X-Antns-Domain = %q", got)
	}
	if got := w.Header().Get("Content-Type"); !strings.Contains(got, "html") {
		t.Errorf("content type not sniffed: %q", got)
	}
}

func TestHostWithPortAndCase(t *testing.T) {
	f := newFixture(t, Config{})
	f.registerDomain(t, "example.ant", []byte("content"))
	for _, host := range []string{"example.ant:18888", "EXAMPLE.ant"} {
		if w := f.request(host, "/"); w.Code != http.StatusOK {
			t.Errorf("host %q: got %d, wanted 200", host, w.Code)
		}
	}
}

func TestRegisteredButEmpty(t *testing.T) {
	f := newFixture(t, Config{})
	f.publish(t, "empty.ant", []document.Record{{Type: "text", Name: "info", Value: "x"}})
	if w := f.request("empty.ant", "/"); w.Code != http.StatusNotFound {
		t.Errorf("got %d, wanted 404 for domain without content record", w.Code)
	}
}

func TestUnavailable(t *testing.T) {
	f := newFixture(t, Config{})
	f.registerDomain(t, "example.ant", []byte("content"))
	f.store.GetHook = func(cas.Address) error { return cas.ErrUnavailable }
	if w := f.request("example.ant", "/"); w.Code != http.StatusBadGateway {
		t.Errorf("got %d, wanted 502", w.Code)
	}
}

func TestMalformedContentAddress(t *testing.T) {
	f := newFixture(t, Config{})
	f.publish(t, "bad.ant", []document.Record{{Type: "ant", Name: ".", Value: "nonsense"}})
	if w := f.request("bad.ant", "/"); w.Code != http.StatusBadGateway {
		t.Errorf("got %d, wanted 502", w.Code)
	}
}

func TestInFlightLimit(t *testing.T) {
	f := newFixture(t, Config{MaxInFlight: 1})
	f.registerDomain(t, "example.ant", []byte("content"))

	// Warm the cache so the blocked fetch below is the content chunk.
	if w := f.request("example.ant", "/"); w.Code != http.StatusOK {
		t.Fatalf("warmup failed: %d", w.Code)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once bool
	f.store.GetHook = func(cas.Address) error {
		if !once {
			once = true
			close(entered)
			<-release
		}
		return nil
	}
	done := make(chan int)
	go func() {
		w := f.request("example.ant", "/")
		done <- w.Code
	}()
	<-entered
	if w := f.request("example.ant", "/"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d while busy, wanted 503", w.Code)
	}
	close(release)
	if code := <-done; code != http.StatusOK {
		t.Errorf("blocked request finished with %d, wanted 200", code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t, Config{})
	w := f.request("127.0.0.1:18888", StatusPath)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, wanted 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type %q", got)
	}
	if !strings.Contains(w.Body.String(), "cache_entries") {
		t.Errorf("status body missing cache_entries: %s", w.Body.String())
	}
}

func TestUpstreamForwarding(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, "from upstream")
	}))
	defer upstream.Close()

	f := newFixture(t, Config{Upstream: upstream.URL + "/$ADDRESS"})
	content := []byte("content")
	f.registerDomain(t, "example.ant", content)
	ctx := context.Background()
	contentAddr, _ := f.store.ChunkPut(ctx, content, "")

	w := f.request("example.ant", "/index.html")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, wanted 200: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "from upstream" {
		t.Errorf("wrong body: %q", w.Body.String())
	}
	want := "/" + contentAddr.String() + "/index.html"
	if gotPath != want {
		t.Errorf("upstream path %q, wanted %q", gotPath, want)
	}
}
