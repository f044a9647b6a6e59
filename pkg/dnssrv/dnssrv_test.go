package dnssrv

import (
	"net"
	"testing"

	"github.com/miekg/dns"
)

// testWriter records the response message.
type testWriter struct {
	msg *dns.Msg
}

func (w *testWriter) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5354}
}
func (w *testWriter) RemoteAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}
func (w *testWriter) WriteMsg(m *dns.Msg) error { w.msg = m; return nil }
func (w *testWriter) Write([]byte) (int, error) { return 0, nil }
func (w *testWriter) Close() error              { return nil }
func (w *testWriter) TsigStatus() error         { return nil }
func (w *testWriter) TsigTimersOnly(bool)       {}
func (w *testWriter) Hijack()                   {}

func query(t *testing.T, s *Server, qname string, qtype uint16) *dns.Msg {
	t.Helper()
	req := new(dns.Msg)
	req.SetQuestion(qname, qtype)
	w := &testWriter{}
	s.mux.ServeDNS(w, req)
	if w.msg == nil {
		t.Fatalf("no response written for %s %s", qname, dns.TypeToString[qtype])
	}
	return w.msg
}

func TestAQueryInZone(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:5354", AnswerTTL: 30})
	resp := query(t, s, "example.ant.", dns.TypeA)
	if resp.Rcode != dns.RcodeSuccess {
		t.Fatalf("got rcode %s", dns.RcodeToString[resp.Rcode])
	}
	if !resp.Authoritative {
		t.Errorf("response not authoritative")
	}
	if len(resp.Answer) != 1 {
		t.Fatalf("got %d answers, wanted 1", len(resp.Answer))
	}
	a, ok := resp.Answer[0].(*dns.A)
	if !ok {
		t.Fatalf("answer is %T, wanted A", resp.Answer[0])
	}
	if !a.A.Equal(net.IPv4(127, 0, 0, 1)) {
		t.Errorf("answer is %s, wanted 127.0.0.1", a.A)
	}
	if a.Hdr.Ttl != 30 {
		t.Errorf("answer ttl %d, wanted 30", a.Hdr.Ttl)
	}
}

func TestAQueryCustomAnswer(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:5354", Answer: net.IPv4(127, 0, 0, 2)})
	resp := query(t, s, "example.ant.", dns.TypeA)
	if len(resp.Answer) != 1 {
		t.Fatalf("got %d answers, wanted 1", len(resp.Answer))
	}
	if a := resp.Answer[0].(*dns.A); !a.A.Equal(net.IPv4(127, 0, 0, 2)) {
		t.Errorf("answer is %s, wanted 127.0.0.2", a.A)
	}
}

func TestAAAAQueryNoAnswer(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:5354"})
	resp := query(t, s, "example.ant.", dns.TypeAAAA)
	if resp.Rcode != dns.RcodeSuccess {
		t.Errorf("got rcode %s, wanted NOERROR", dns.RcodeToString[resp.Rcode])
	}
	if len(resp.Answer) != 0 {
		t.Errorf("got %d answers, wanted none", len(resp.Answer))
	}
}

func TestOtherQtypeRefused(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:5354"})
	for _, qtype := range []uint16{dns.TypeMX, dns.TypeTXT, dns.TypeNS, dns.TypeSOA} {
		resp := query(t, s, "example.ant.", qtype)
		if resp.Rcode != dns.RcodeRefused {
			t.Errorf("%s: got rcode %s, wanted REFUSED",
				dns.TypeToString[qtype], dns.RcodeToString[resp.Rcode])
		}
	}
}

func TestForeignNameNXDomain(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:5354"})
	for _, qname := range []string{"example.com.", "ant.", "antler.example."} {
		resp := query(t, s, qname, dns.TypeA)
		if resp.Rcode != dns.RcodeNameError {
			t.Errorf("%s: got rcode %s, wanted NXDOMAIN",
				qname, dns.RcodeToString[resp.Rcode])
		}
	}
}

func TestSubdomainQueryAnswered(t *testing.T) {
	// DNS-level answers cover anything under the zone; only the proxy
	// and resolver restrict names to a single label.
	s := New(Config{Addr: "127.0.0.1:5354"})
	resp := query(t, s, "www.example.ant.", dns.TypeA)
	if resp.Rcode != dns.RcodeSuccess || len(resp.Answer) != 1 {
		t.Errorf("subdomain query not answered: rcode %s, %d answers",
			dns.RcodeToString[resp.Rcode], len(resp.Answer))
	}
}
