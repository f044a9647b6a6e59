package casclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/registerkey"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(Config{UserAgent: "antns unit test", URL: srv.URL}), srv
}

func TestChunkPut(t *testing.T) {
	var gotBody []byte
	var gotPayment string
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v0/chunks" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotBody, _ = io.ReadAll(r.Body)
		gotPayment = r.Header.Get("X-Antns-Payment")
		fmt.Fprintf(w, `{"address":"%s"}`, strings.Repeat("ab", 32))
	}))
	defer srv.Close()

	addr, err := cli.ChunkPut(context.Background(), []byte("payload"), "wallet-1")
	if err != nil {
		t.Fatalf("chunk put failed: %v", err)
	}
	if addr.String() != strings.Repeat("ab", 32) {
		t.Errorf("wrong address: %s", addr)
	}
	if string(gotBody) != "payload" {
		t.Errorf("wrong body sent: %q", gotBody)
	}
	if gotPayment != "wallet-1" {
		t.Errorf("payment header %q", gotPayment)
	}
}

func TestChunkGetErrors(t *testing.T) {
	for _, table := range []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, cas.ErrNotFound},
		{http.StatusPaymentRequired, cas.ErrPayment},
		{http.StatusInternalServerError, cas.ErrUnavailable},
	} {
		cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", table.status)
		}))
		_, err := cli.ChunkGet(context.Background(), cas.Address{1})
		srv.Close()
		if !errors.Is(err, table.want) {
			t.Errorf("status %d: got %v, wanted %v", table.status, err, table.want)
		}
	}
}

func TestConnectionErrorIsUnavailable(t *testing.T) {
	cli := New(Config{URL: "http://127.0.0.1:1"})
	if _, err := cli.ChunkGet(context.Background(), cas.Address{1}); !errors.Is(err, cas.ErrUnavailable) {
		t.Errorf("got %v, wanted ErrUnavailable", err)
	}
}

func TestRegisterAppendBody(t *testing.T) {
	var got registerRequest
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/registers/entries" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := jsonDecode(r.Body, &got); err != nil {
			t.Errorf("bad body: %v", err)
		}
	}))
	defer srv.Close()

	secret := registerkey.DeriveRegisterKey("example.ant")
	entry := cas.Address{7}
	if err := cli.RegisterAppend(context.Background(), secret, "example.ant", entry, ""); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if got.Name != "example.ant" {
		t.Errorf("name %q", got.Name)
	}
	if got.Entry != entry.String() {
		t.Errorf("entry %q", got.Entry)
	}
	roundtrip, err := registerkey.SecretFromHex(got.Secret)
	if err != nil {
		t.Fatalf("secret doesn't parse: %v", err)
	}
	if roundtrip.Bytes() != secret.Bytes() {
		t.Errorf("secret mangled in transit")
	}
}

func TestRegisterHistoryStream(t *testing.T) {
	a1, a2 := strings.Repeat("11", 32), strings.Repeat("22", 32)
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s\n%s\n", a1, a2)
	}))
	defer srv.Close()

	stream, err := cli.RegisterHistory(context.Background(), cas.Address{1})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	ctx := context.Background()
	var got []string
	for {
		addr, ok, err := stream.Next(ctx)
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, addr.String())
	}
	if len(got) != 2 || got[0] != a1 || got[1] != a2 {
		t.Errorf("wrong history: %v", got)
	}
}

func TestRegisterHistoryMissingRegister(t *testing.T) {
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	stream, err := cli.RegisterHistory(context.Background(), cas.Address{1})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if _, ok, err := stream.Next(context.Background()); ok || err != nil {
		t.Errorf("missing register should yield an empty history, got ok=%v err=%v", ok, err)
	}
}

func TestRegisterHistoryMalformedEntry(t *testing.T) {
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "junk")
	}))
	defer srv.Close()

	stream, err := cli.RegisterHistory(context.Background(), cas.Address{1})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if _, ok, err := stream.Next(context.Background()); ok || err == nil {
		t.Errorf("malformed entry should fail the stream, got ok=%v err=%v", ok, err)
	}
}

func jsonDecode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
