package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	logpkg "antns.org/antns-go/pkg/log"
	"antns.org/antns-go/pkg/server"
)

type serveSettings struct {
	configFile string
	gatewayURL string
	dnsPort    int
	proxyPort  int
	ttlMinutes int
	upstream   string
	answer     string
	baseDir    string
	logLevel   string
}

func cmdServe(args []string) {
	const usage = `
Run the local antns service: a DNS responder answering A queries for
the zone with a loopback address, and an HTTP proxy resolving Host
headers and serving the addressed content. Options override the
config file.
`
	var settings serveSettings
	set := newOptionSet(args, "")
	set.FlagLong(&settings.configFile, "config", 'c', "YAML config file", "file")
	set.FlagLong(&settings.gatewayURL, "gateway", 'g', "Storage gateway URL", "url")
	dnsPort := set.FlagLong(&settings.dnsPort, "dns-port", 0, "DNS listen port", "port")
	proxyPort := set.FlagLong(&settings.proxyPort, "proxy-port", 0, "HTTP proxy listen port", "port")
	ttl := set.FlagLong(&settings.ttlMinutes, "ttl", 0, "Cache TTL in minutes, 0 disables caching", "minutes")
	upstream := set.FlagLong(&settings.upstream, "upstream", 0, "Gateway URL template with $ADDRESS placeholder", "url")
	answer := set.FlagLong(&settings.answer, "answer", 0, "Address handed out in DNS answers", "ip")
	baseDir := set.FlagLong(&settings.baseDir, "data-dir", 'd', "Client data directory", "dir")
	set.FlagLong(&settings.logLevel, "log-level", 0, "Logging level: debug, info, warning, error", "level")
	parseArgs(set, args, 0, usage)

	if settings.logLevel != "" {
		if err := logpkg.SetLevelFromString(settings.logLevel); err != nil {
			log.Printf("antns: %v", err)
			os.Exit(exitUser)
		}
	}

	cfg, err := server.LoadConfig(settings.configFile)
	if err != nil {
		log.Printf("antns: %v", err)
		os.Exit(exitUser)
	}
	if dnsPort.Seen() {
		cfg.DNSPort = settings.dnsPort
	}
	if proxyPort.Seen() {
		cfg.ProxyPort = settings.proxyPort
	}
	if ttl.Seen() {
		cfg.TTLMinutes = settings.ttlMinutes
	}
	if upstream.Seen() {
		cfg.Upstream = settings.upstream
	}
	if answer.Seen() {
		cfg.Answer = settings.answer
	}
	if baseDir.Seen() {
		cfg.BaseDir = settings.baseDir
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir, err = defaultBaseDir()
		if err != nil {
			log.Printf("antns: %v", err)
			os.Exit(exitUser)
		}
	}

	srv := server.New(newCASClient(settings.gatewayURL), cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		fatal(err)
	}
}

func cmdStatus(args []string) {
	const usage = `
Query a running server's status endpoint and print what it reports.
`
	proxyPort := server.DefaultProxyPort
	set := newOptionSet(args, "")
	set.FlagLong(&proxyPort, "proxy-port", 0, "HTTP proxy port of the running server", "port")
	parseArgs(set, args, 0, usage)

	info, err := server.QueryStatus(context.Background(), proxyPort)
	if err != nil {
		log.Printf("antns: %v", err)
		os.Exit(exitNetwork)
	}
	fmt.Printf("version: %s\n", info.Version)
	fmt.Printf("pid: %d\n", info.Pid)
	fmt.Printf("dns: %s\n", info.DNSAddr)
	fmt.Printf("proxy: %s\n", info.ProxyAddr)
	if info.TTLMinutes > 0 {
		fmt.Printf("cache: ttl %d minutes, %d entries\n", info.TTLMinutes, info.CacheEntries)
	} else {
		fmt.Printf("cache: disabled\n")
	}
}

func cmdStop(args []string) {
	const usage = `
Stop the running server found via its pid file.
`
	var baseDir string
	set := newOptionSet(args, "")
	set.FlagLong(&baseDir, "data-dir", 'd', "Client data directory", "dir")
	parseArgs(set, args, 0, usage)

	if baseDir == "" {
		var err error
		baseDir, err = defaultBaseDir()
		if err != nil {
			log.Printf("antns: %v", err)
			os.Exit(exitUser)
		}
	}
	if err := server.Stop(baseDir); err != nil {
		log.Printf("antns: %v", err)
		os.Exit(exitUser)
	}
	fmt.Println("stop signal sent")
}
