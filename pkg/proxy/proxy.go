// package proxy implements the local HTTP proxy that makes antns
// names browsable: it resolves the Host header through the cache and
// streams the addressed content chunk back to the client. With an
// upstream template configured it forwards to a local gateway instead
// of fetching chunks itself.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"
	"golang.org/x/time/rate"

	"antns.org/antns-go/internal/metrics"
	"antns.org/antns-go/pkg/cache"
	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/document"
	"antns.org/antns-go/pkg/log"
	"antns.org/antns-go/pkg/name"
	"antns.org/antns-go/pkg/resolver"
)

const (
	// StatusPath serves a small JSON status document, next to
	// /metrics, for the status CLI command.
	StatusPath = "/.well-known/antns/status"

	DefaultMaxInFlight = 64
	DefaultMaxConns    = 256
	DefaultChunkTimeout = 30 * time.Second
)

type Config struct {
	// Addr to listen on, e.g. "127.0.0.1:18888".
	Addr  string
	Cache *cache.Cache
	// CAS fetches content chunks; unused when Upstream is set.
	CAS cas.Client
	// Upstream, when non-empty, is a URL template with an $ADDRESS
	// placeholder; requests are forwarded there instead of fetching
	// the chunk directly.
	Upstream string
	// MaxInFlight caps concurrently handled requests; further
	// requests get 503. DefaultMaxInFlight if zero.
	MaxInFlight int
	// MaxConns caps accepted connections at the listener.
	// DefaultMaxConns if zero.
	MaxConns int
	// FetchLimit smooths chunk fetches triggered by cache misses;
	// zero means no limit.
	FetchLimit rate.Limit
	FetchBurst int
	// ChunkTimeout bounds a single chunk fetch.
	ChunkTimeout time.Duration
	// Status, when non-nil, supplies the body of the status
	// endpoint.
	Status func() any
}

func (c Config) withDefaults() Config {
	if c.MaxInFlight == 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.MaxConns == 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.ChunkTimeout == 0 {
		c.ChunkTimeout = DefaultChunkTimeout
	}
	return c
}

type Server struct {
	config   Config
	mux      *http.ServeMux
	inFlight chan struct{}
	limiter  *rate.Limiter
	client   *http.Client

	mu   sync.Mutex
	http *http.Server
}

func New(config Config) *Server {
	s := &Server{
		config:   config.withDefaults(),
		mux:      http.NewServeMux(),
		client:   &http.Client{Timeout: DefaultChunkTimeout},
	}
	s.inFlight = make(chan struct{}, s.config.MaxInFlight)
	if s.config.FetchLimit > 0 {
		s.limiter = rate.NewLimiter(s.config.FetchLimit, s.config.FetchBurst)
	}
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc(StatusPath, s.serveStatus)
	return s
}

// A response writer that records the status code, for metrics.
type responseWriterWithStatus struct {
	statusCode int
	w          http.ResponseWriter
}

func (ws *responseWriterWithStatus) Header() http.Header {
	return ws.w.Header()
}

func (ws *responseWriterWithStatus) Write(data []byte) (int, error) {
	return ws.w.Write(data)
}

func (ws *responseWriterWithStatus) WriteHeader(statusCode int) {
	ws.statusCode = statusCode
	ws.w.WriteHeader(statusCode)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := responseWriterWithStatus{w: w, statusCode: http.StatusOK}
	defer func() {
		metrics.ProxyRequests.WithLabelValues(strconv.Itoa(response.statusCode)).Inc()
	}()

	// Status and metrics answer regardless of Host and without
	// counting against the in-flight budget.
	if r.URL.Path == StatusPath || r.URL.Path == "/metrics" {
		s.mux.ServeHTTP(&response, r)
		return
	}

	select {
	case s.inFlight <- struct{}{}:
		defer func() { <-s.inFlight }()
	default:
		http.Error(&response, "proxy overloaded", http.StatusServiceUnavailable)
		return
	}
	s.serveDomain(&response, r)
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.config.Status != nil {
		writeJSON(w, s.config.Status())
		return
	}
	writeJSON(w, map[string]any{"cache_entries": s.config.Cache.Len()})
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("proxy: writing status: %v", err)
	}
}

func (s *Server) serveDomain(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if !name.InZone(host) {
		http.Error(w, fmt.Sprintf("host %q is outside the %s zone", host, name.TLD),
			http.StatusMisdirectedRequest)
		return
	}
	domain, err := name.Normalize(host)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.config.Cache.Lookup(r.Context(), domain)
	if err != nil {
		switch {
		case errors.Is(err, resolver.ErrNotRegistered):
			http.Error(w, fmt.Sprintf("domain %q is not registered", domain), http.StatusNotFound)
		case errors.Is(err, resolver.ErrCorrupt):
			http.Error(w, fmt.Sprintf("domain %q is corrupt", domain), http.StatusBadGateway)
		default:
			log.Warning("proxy: resolving %q: %v", domain, err)
			http.Error(w, "name resolution unavailable", http.StatusBadGateway)
		}
		return
	}
	record := document.FindRecord(res.Records, document.TypeAnt, document.Apex)
	if record == nil {
		http.Error(w, fmt.Sprintf("domain %q has no content record", domain), http.StatusNotFound)
		return
	}
	addr, err := cas.AddressFromHex(record.Value)
	if err != nil {
		http.Error(w, fmt.Sprintf("domain %q has a malformed content address", domain), http.StatusBadGateway)
		return
	}

	if s.config.Upstream != "" {
		s.forwardUpstream(w, r, domain, addr)
		return
	}
	s.serveChunk(w, r, domain, addr)
}

func (s *Server) serveChunk(w http.ResponseWriter, r *http.Request, domain string, addr cas.Address) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.ChunkTimeout)
	defer cancel()
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			http.Error(w, "proxy overloaded", http.StatusServiceUnavailable)
			return
		}
	}
	data, err := s.config.CAS.ChunkGet(ctx, addr)
	if err != nil {
		if errors.Is(err, cas.ErrNotFound) {
			http.Error(w, fmt.Sprintf("content chunk %s not found", addr), http.StatusNotFound)
			return
		}
		log.Warning("proxy: fetching chunk %s for %q: %v", addr, domain, err)
		http.Error(w, "content fetch failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Antns-Domain", domain)
	w.Header().Set("X-Antns-Target", addr.String())
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		log.Debug("proxy: writing response for %q: %v", domain, err)
	}
}

// forwardUpstream hands the request to a gateway that knows how to
// serve the chunk, substituting the target address into the template.
func (s *Server) forwardUpstream(w http.ResponseWriter, r *http.Request, domain string, addr cas.Address) {
	base := strings.ReplaceAll(s.config.Upstream, "$ADDRESS", addr.String())
	url := base + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, nil)
	if err != nil {
		http.Error(w, "invalid upstream url", http.StatusInternalServerError)
		return
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.Warning("proxy: upstream request for %q: %v", domain, err)
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Antns-Domain", domain)
	w.Header().Set("X-Antns-Target", addr.String())
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Debug("proxy: streaming upstream response for %q: %v", domain, err)
	}
}

// ListenAndServe serves until Shutdown, capping concurrent
// connections at the listener.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("proxy: %v", err)
	}
	ln = netutil.LimitListener(ln, s.config.MaxConns)

	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	log.Info("http proxy listening on %s", s.config.Addr)
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("proxy: %v", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv != nil {
		srv.Shutdown(ctx)
	}
}
