// package server ties the antns DNS responder and HTTP proxy together
// into the long-running local service, and implements the pid-file
// based stop/status handshake the CLI uses.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dchest/safefile"

	"antns.org/antns-go/internal/version"
	"antns.org/antns-go/pkg/cache"
	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/dnssrv"
	"antns.org/antns-go/pkg/log"
	"antns.org/antns-go/pkg/proxy"
	"antns.org/antns-go/pkg/resolver"
)

const pidFileName = "antns-server.pid"

type Server struct {
	config  Config
	cache   *cache.Cache
	dns     *dnssrv.Server
	proxy   *proxy.Server
	pidFile string
}

func New(client cas.Client, config Config) *Server {
	ttl := time.Duration(config.TTLMinutes) * time.Minute
	c := cache.New(resolver.New(client, resolver.Config{}), cache.Config{
		TTL:        ttl,
		MaxEntries: config.MaxCacheEntries,
	})

	answerTTL := uint32(dnssrv.DefaultAnswerTTL)
	if ttl > 0 && ttl < time.Duration(answerTTL)*time.Second {
		answerTTL = uint32(ttl / time.Second)
	}
	var answer net.IP
	if config.Answer != "" {
		answer = net.ParseIP(config.Answer)
	}

	s := &Server{
		config:  config,
		cache:   c,
		pidFile: filepath.Join(config.BaseDir, "user_data", pidFileName),
	}
	s.dns = dnssrv.New(dnssrv.Config{
		Addr:      fmt.Sprintf("127.0.0.1:%d", config.DNSPort),
		Answer:    answer,
		AnswerTTL: answerTTL,
	})
	s.proxy = proxy.New(proxy.Config{
		Addr:     fmt.Sprintf("127.0.0.1:%d", config.ProxyPort),
		Cache:    c,
		CAS:      client,
		Upstream: config.Upstream,
		Status:   s.status,
	})
	return s
}

// StatusInfo is the document served on the proxy's status endpoint.
type StatusInfo struct {
	Version      string `json:"version"`
	Pid          int    `json:"pid"`
	DNSAddr      string `json:"dnsAddr"`
	ProxyAddr    string `json:"proxyAddr"`
	TTLMinutes   int    `json:"ttlMinutes"`
	CacheEntries int    `json:"cacheEntries"`
}

func (s *Server) status() any {
	return StatusInfo{
		Version:      version.ModuleVersion(),
		Pid:          os.Getpid(),
		DNSAddr:      fmt.Sprintf("127.0.0.1:%d", s.config.DNSPort),
		ProxyAddr:    fmt.Sprintf("127.0.0.1:%d", s.config.ProxyPort),
		TTLMinutes:   s.config.TTLMinutes,
		CacheEntries: s.cache.Len(),
	}
}

// Run serves until ctx is cancelled or a component fails. The pid
// file exists exactly while the server runs.
func (s *Server) Run(ctx context.Context) error {
	if err := s.writePidFile(); err != nil {
		return err
	}
	defer os.Remove(s.pidFile)

	errs := make(chan error, 2)
	go func() { errs <- s.dns.ListenAndServe() }()
	go func() { errs <- s.proxy.ListenAndServe() }()

	var err error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errs:
	}
	s.dns.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.proxy.Shutdown(shutdownCtx)
	return err
}

func (s *Server) writePidFile() error {
	if err := os.MkdirAll(filepath.Dir(s.pidFile), 0700); err != nil {
		return fmt.Errorf("creating data directory: %v", err)
	}
	if pid, err := readPidFile(s.pidFile); err == nil && processAlive(pid) {
		return fmt.Errorf("server already running with pid %d", pid)
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := safefile.WriteFile(s.pidFile, data, 0644); err != nil {
		return fmt.Errorf("writing pid file: %v", err)
	}
	return nil
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %q: %v", path, err)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Stop signals a running server found via the pid file under baseDir.
func Stop(baseDir string) error {
	pidFile := filepath.Join(baseDir, "user_data", pidFileName)
	pid, err := readPidFile(pidFile)
	if os.IsNotExist(err) {
		return fmt.Errorf("no server running (no pid file at %s)", pidFile)
	}
	if err != nil {
		return err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("no process with pid %d: %v", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signalling pid %d: %v", pid, err)
	}
	return nil
}

// QueryStatus fetches the status document from a running server's
// proxy port.
func QueryStatus(ctx context.Context, proxyPort int) (StatusInfo, error) {
	url := fmt.Sprintf("http://127.0.0.1:%d%s", proxyPort, proxy.StatusPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusInfo{}, err
	}
	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		return StatusInfo{}, fmt.Errorf("server not reachable on port %d: %v", proxyPort, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return StatusInfo{}, fmt.Errorf("status endpoint returned %s", resp.Status)
	}
	var info StatusInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return StatusInfo{}, fmt.Errorf("parsing status response: %v", err)
	}
	return info, nil
}
