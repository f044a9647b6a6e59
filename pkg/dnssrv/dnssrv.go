// package dnssrv implements the small authoritative DNS responder for
// the antns zone. It doesn't resolve record sets; it answers A queries
// for names under the zone with a fixed loopback address so that
// traffic reaches the local HTTP proxy, which does the real work.
package dnssrv

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/miekg/dns"

	"antns.org/antns-go/internal/metrics"
	"antns.org/antns-go/pkg/log"
	"antns.org/antns-go/pkg/name"
)

const DefaultAnswerTTL = 60

type Config struct {
	// Addr to listen on, UDP and TCP, e.g. "127.0.0.1:5354".
	Addr string
	// Answer is the address returned for names in the zone;
	// 127.0.0.1 if nil.
	Answer net.IP
	// AnswerTTL in seconds; DefaultAnswerTTL if zero. Callers running
	// a resolution cache should pass min(DefaultAnswerTTL, cache TTL).
	AnswerTTL uint32
}

func (c Config) withDefaults() Config {
	if c.Answer == nil {
		c.Answer = net.IPv4(127, 0, 0, 1)
	}
	if c.AnswerTTL == 0 {
		c.AnswerTTL = DefaultAnswerTTL
	}
	return c
}

type Server struct {
	config Config
	mux    *dns.ServeMux

	mu  sync.Mutex
	udp *dns.Server
	tcp *dns.Server
}

func New(config Config) *Server {
	s := &Server{config: config.withDefaults(), mux: dns.NewServeMux()}
	s.mux.HandleFunc(strings.TrimPrefix(name.TLD, ".")+".", s.handleZone)
	s.mux.HandleFunc(".", s.handleOther)
	return s
}

func (s *Server) reply(w dns.ResponseWriter, r *dns.Msg, m *dns.Msg) {
	if len(r.Question) == 1 {
		metrics.DNSQueries.WithLabelValues(
			dns.TypeToString[r.Question[0].Qtype],
			dns.RcodeToString[m.Rcode]).Inc()
	}
	if err := w.WriteMsg(m); err != nil {
		log.Error("dns: writing response: %v", err)
	}
}

func (s *Server) handleZone(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true
	if len(r.Question) != 1 {
		m.Rcode = dns.RcodeFormatError
		s.reply(w, r, m)
		return
	}
	q := r.Question[0]
	if !name.InZone(q.Name) {
		// The zone apex itself ("ant.") has no address records.
		m.Rcode = dns.RcodeNameError
		s.reply(w, r, m)
		return
	}
	switch q.Qtype {
	case dns.TypeA:
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   q.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    s.config.AnswerTTL,
			},
			A: s.config.Answer.To4(),
		})
		log.Debug("dns: %s A -> %s", q.Name, s.config.Answer)
	case dns.TypeAAAA:
		// No answer; the proxy only listens on IPv4 loopback.
	default:
		m.Rcode = dns.RcodeRefused
	}
	s.reply(w, r, m)
}

func (s *Server) handleOther(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true
	m.Rcode = dns.RcodeNameError
	s.reply(w, r, m)
}

// ListenAndServe runs UDP and TCP listeners until Shutdown. It
// returns the first listener error.
func (s *Server) ListenAndServe() error {
	errs := make(chan error, 2)
	started := make(chan struct{}, 2)

	s.mu.Lock()
	s.udp = &dns.Server{Addr: s.config.Addr, Net: "udp", Handler: s.mux,
		NotifyStartedFunc: func() { started <- struct{}{} }}
	s.tcp = &dns.Server{Addr: s.config.Addr, Net: "tcp", Handler: s.mux,
		NotifyStartedFunc: func() { started <- struct{}{} }}
	udp, tcp := s.udp, s.tcp
	s.mu.Unlock()

	go func() { errs <- udp.ListenAndServe() }()
	go func() { errs <- tcp.ListenAndServe() }()
	for n := 0; n < 2; {
		select {
		case err := <-errs:
			if err != nil {
				return fmt.Errorf("dns server: %v", err)
			}
			// Shut down before both listeners came up.
			return nil
		case <-started:
			n++
		}
	}
	log.Info("dns server listening on %s", s.config.Addr)
	if err := <-errs; err != nil {
		return fmt.Errorf("dns server: %v", err)
	}
	return nil
}

func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.udp != nil {
		s.udp.Shutdown()
	}
	if s.tcp != nil {
		s.tcp.Shutdown()
	}
}
