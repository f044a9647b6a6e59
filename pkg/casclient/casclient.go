// package casclient implements cas.Client over the HTTP API of a
// local storage gateway. The gateway owns wallet and network access;
// this client only moves bytes and register entries back and forth.
// Register signing secrets travel to the gateway in the request body,
// which is fine for antns registers: they derive from the published
// shared base secret.
package casclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/hex"
	"antns.org/antns-go/pkg/registerkey"
)

// DefaultURL is where the local gateway usually listens.
const DefaultURL = "http://127.0.0.1:17017"

const paymentHeader = "X-Antns-Payment"

type Config struct {
	UserAgent string
	URL       string

	// HTTPClient specifies the HTTP client to use when talking to
	// the gateway. If nil, a default client is created.
	HTTPClient *http.Client
}

func (c Config) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{}
}

func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	return &Client{config: cfg, client: cfg.getHTTPClient()}
}

type Client struct {
	config Config
	client *http.Client
}

func (cli *Client) path(parts ...string) string {
	return strings.TrimSuffix(cli.config.URL, "/") + "/v0/" + strings.Join(parts, "/")
}

type addressResponse struct {
	Address string `json:"address"`
}

func (cli *Client) ChunkPut(ctx context.Context, data []byte, payment string) (cas.Address, error) {
	var rsp addressResponse
	err := cli.do(ctx, http.MethodPost, cli.path("chunks"), payment,
		"application/octet-stream", bytes.NewReader(data),
		func(body io.Reader) error {
			return json.NewDecoder(body).Decode(&rsp)
		})
	if err != nil {
		return cas.Address{}, err
	}
	return cas.AddressFromHex(rsp.Address)
}

func (cli *Client) ChunkGet(ctx context.Context, addr cas.Address) ([]byte, error) {
	var data []byte
	err := cli.do(ctx, http.MethodGet, cli.path("chunks", addr.String()), "", "", nil,
		func(body io.Reader) error {
			var err error
			data, err = io.ReadAll(body)
			return err
		})
	return data, err
}

type registerRequest struct {
	Secret string `json:"secret"`
	Name   string `json:"name"`
	Entry  string `json:"entry"`
}

func (cli *Client) RegisterCreate(ctx context.Context, secret *registerkey.Secret, name string, initial cas.Address, payment string) (cas.Address, error) {
	body, err := registerBody(secret, name, initial)
	if err != nil {
		return cas.Address{}, err
	}
	var rsp addressResponse
	err = cli.do(ctx, http.MethodPost, cli.path("registers"), payment,
		"application/json", body,
		func(body io.Reader) error {
			return json.NewDecoder(body).Decode(&rsp)
		})
	if err != nil {
		return cas.Address{}, err
	}
	return cas.AddressFromHex(rsp.Address)
}

func (cli *Client) RegisterAppend(ctx context.Context, secret *registerkey.Secret, name string, entry cas.Address, payment string) error {
	body, err := registerBody(secret, name, entry)
	if err != nil {
		return err
	}
	return cli.do(ctx, http.MethodPost, cli.path("registers", "entries"), payment,
		"application/json", body, nil)
}

func registerBody(secret *registerkey.Secret, name string, entry cas.Address) (io.Reader, error) {
	b := secret.Bytes()
	data, err := json.Marshal(registerRequest{
		Secret: hex.Serialize(b[:]),
		Name:   name,
		Entry:  entry.String(),
	})
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// RegisterHistory streams the register's entries, one hex address per
// line in the response body.
func (cli *Client) RegisterHistory(ctx context.Context, registerAddr cas.Address) (cas.HistoryStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		cli.path("registers", registerAddr.String(), "history"), nil)
	if err != nil {
		return nil, err
	}
	cli.setHeaders(req, "", "")
	rsp, err := cli.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cas.ErrUnavailable, err)
	}
	if rsp.StatusCode == http.StatusNotFound {
		rsp.Body.Close()
		// A register that doesn't exist yet has an empty history.
		return &historyStream{}, nil
	}
	if rsp.StatusCode != http.StatusOK {
		defer rsp.Body.Close()
		return nil, statusError(rsp)
	}
	return &historyStream{body: rsp.Body, scanner: bufio.NewScanner(rsp.Body)}, nil
}

type historyStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *historyStream) Next(ctx context.Context) (cas.Address, bool, error) {
	if s.body == nil || s.done {
		return cas.Address{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		s.close()
		return cas.Address{}, false, err
	}
	if !s.scanner.Scan() {
		err := s.scanner.Err()
		s.close()
		if err != nil {
			return cas.Address{}, false, fmt.Errorf("%w: reading history: %v", cas.ErrUnavailable, err)
		}
		return cas.Address{}, false, nil
	}
	line := strings.TrimSpace(s.scanner.Text())
	if line == "" {
		return s.Next(ctx)
	}
	addr, err := cas.AddressFromHex(line)
	if err != nil {
		s.close()
		return cas.Address{}, false, fmt.Errorf("malformed history entry %q: %v", line, err)
	}
	return addr, true, nil
}

func (s *historyStream) close() {
	s.done = true
	if s.body != nil {
		s.body.Close()
	}
}

func (cli *Client) setHeaders(req *http.Request, payment, contentType string) {
	if cli.config.UserAgent != "" {
		req.Header.Set("User-Agent", cli.config.UserAgent)
	}
	if payment != "" {
		req.Header.Set(paymentHeader, payment)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
}

func statusError(rsp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(rsp.Body, 1024))
	text := strings.TrimSpace(string(msg))
	switch rsp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", cas.ErrNotFound, text)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s", cas.ErrPayment, text)
	default:
		return fmt.Errorf("%w: gateway returned %s: %s", cas.ErrUnavailable, rsp.Status, text)
	}
}

func (cli *Client) do(ctx context.Context, method, url, payment, contentType string,
	requestBody io.Reader, parseBody func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, method, url, requestBody)
	if err != nil {
		return err
	}
	cli.setHeaders(req, payment, contentType)
	rsp, err := cli.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", cas.ErrUnavailable, err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return statusError(rsp)
	}
	if parseBody == nil {
		io.Copy(io.Discard, rsp.Body)
		return nil
	}
	return parseBody(rsp.Body)
}
