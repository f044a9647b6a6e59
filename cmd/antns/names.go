package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pborman/getopt/v2"

	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/crypto"
	"antns.org/antns-go/pkg/document"
	"antns.org/antns-go/pkg/hex"
	logpkg "antns.org/antns-go/pkg/log"
	"antns.org/antns-go/pkg/register"
	"antns.org/antns-go/pkg/resolver"
)

// recordList collects repeated -r TYPE:NAME:VALUE options.
type recordList []document.Record

func (l *recordList) Set(value string, _ getopt.Option) error {
	parts := strings.SplitN(value, ":", 3)
	if len(parts) != 3 {
		return fmt.Errorf("record %q is not on the form TYPE:NAME:VALUE", value)
	}
	recordType := strings.ToLower(parts[0])
	if recordType == "" || parts[1] == "" {
		return fmt.Errorf("record %q has an empty type or name", value)
	}
	*l = append(*l, document.Record{Type: recordType, Name: parts[1], Value: parts[2]})
	return nil
}

func (l *recordList) String() string {
	var parts []string
	for _, r := range *l {
		parts = append(parts, fmt.Sprintf("%s:%s:%s", r.Type, r.Name, r.Value))
	}
	return strings.Join(parts, ",")
}

type namesSettings struct {
	gatewayURL string
	baseDir    string
	verbose    bool
	records    recordList
	force      bool
	key        string
}

func (s *namesSettings) addCommonOptions(set *getopt.Set) {
	set.FlagLong(&s.gatewayURL, "gateway", 'g', "Storage gateway URL", "url")
	set.FlagLong(&s.baseDir, "data-dir", 'd', "Client data directory", "dir")
	set.FlagLong(&s.verbose, "verbose", 0, "Enable debug logging")
}

func (s *namesSettings) apply() {
	if s.verbose {
		logpkg.SetLevel(logpkg.DebugLevel)
	}
}

// targetRecords builds the record set from an optional positional
// apex target plus repeated -r options.
func targetRecords(target string, extra recordList) ([]document.Record, error) {
	var records []document.Record
	if target != "" {
		if _, err := cas.AddressFromHex(target); err != nil {
			return nil, fmt.Errorf("target %q is not a chunk address: %v", target, err)
		}
		records = append(records, document.Record{
			Type: document.TypeAnt, Name: document.Apex, Value: target,
		})
	}
	return append(records, extra...), nil
}

func cmdRegister(args []string) {
	const usage = `
Register a fresh domain: generate its keypair, publish the owner
document and the initial record set. TARGET, if given, becomes the
apex content record; additional records can be added with -r.
`
	var settings namesSettings
	set := newOptionSet(args, "NAME [TARGET]")
	settings.addCommonOptions(set)
	set.FlagLong(&settings.records, "record", 'r', "Additional record", "type:name:value")
	parseArgs(set, args, 2, usage)
	if set.NArgs() < 1 {
		log.Print("Domain name argument missing.")
		os.Exit(exitUser)
	}
	settings.apply()
	domain := normalizeArg(set.Arg(0))

	records, err := targetRecords(set.Arg(1), settings.records)
	if err != nil {
		log.Printf("antns: %v", err)
		os.Exit(exitUser)
	}

	adapter := register.Adapter{Client: newCASClient(settings.gatewayURL)}
	ks := newKeyStore(settings.baseDir)
	reg, err := adapter.RegisterDomain(context.Background(), ks, domain, records, "")
	if err != nil {
		fatal(err)
	}
	fmt.Printf("registered %s\n", reg.Domain)
	fmt.Printf("register address: %s\n", reg.RegisterAddress)
	fmt.Printf("public key: %s\n", hex.Serialize(reg.PublicKey[:]))
	fmt.Printf("private key saved under %s\n", ks.Dir())
}

func cmdLookup(args []string) {
	const usage = `
Resolve a domain's current record set by walking its full register
history and verifying every entry.
`
	var settings namesSettings
	set := newOptionSet(args, "NAME")
	settings.addCommonOptions(set)
	parseArgs(set, args, 1, usage)
	if set.NArgs() < 1 {
		log.Print("Domain name argument missing.")
		os.Exit(exitUser)
	}
	settings.apply()
	domain := normalizeArg(set.Arg(0))

	r := resolver.New(newCASClient(settings.gatewayURL), resolver.Config{})
	res, err := r.Resolve(context.Background(), domain)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("owner: %s\n", hex.Serialize(res.Owner[:]))
	if len(res.Records) == 0 {
		fmt.Printf("%s is registered but has no records\n", domain)
		return
	}
	for _, rec := range res.Records {
		fmt.Printf("%-8s %-16s %s\n", rec.Type, rec.Name, rec.Value)
	}
}

func cmdUpdate(args []string) {
	const usage = `
Publish a new complete record set for a locally owned domain. The
record set replaces the current one; list every record the domain
should keep.
`
	var settings namesSettings
	set := newOptionSet(args, "NAME [TARGET]")
	settings.addCommonOptions(set)
	set.FlagLong(&settings.records, "record", 'r', "Record to publish", "type:name:value")
	parseArgs(set, args, 2, usage)
	if set.NArgs() < 1 {
		log.Print("Domain name argument missing.")
		os.Exit(exitUser)
	}
	settings.apply()
	domain := normalizeArg(set.Arg(0))

	records, err := targetRecords(set.Arg(1), settings.records)
	if err != nil {
		log.Printf("antns: %v", err)
		os.Exit(exitUser)
	}
	if len(records) == 0 {
		log.Print("Nothing to publish; give a TARGET or -r records.")
		os.Exit(exitUser)
	}

	adapter := register.Adapter{Client: newCASClient(settings.gatewayURL)}
	ks := newKeyStore(settings.baseDir)
	addr, err := adapter.UpdateDomain(context.Background(), ks, domain, records, "")
	if err != nil {
		fatal(err)
	}
	fmt.Printf("updated %s, records chunk %s\n", domain, addr)
}

func cmdHistory(args []string) {
	const usage = `
List every register entry of a domain with its validation status,
including spam entries that resolution ignores.
`
	var settings namesSettings
	set := newOptionSet(args, "NAME")
	settings.addCommonOptions(set)
	parseArgs(set, args, 1, usage)
	if set.NArgs() < 1 {
		log.Print("Domain name argument missing.")
		os.Exit(exitUser)
	}
	settings.apply()
	domain := normalizeArg(set.Arg(0))

	r := resolver.New(newCASClient(settings.gatewayURL), resolver.Config{})
	entries, owner, err := r.History(context.Background(), domain)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("owner: %s\n", hex.Serialize(owner[:]))
	for _, e := range entries {
		switch {
		case e.Owner:
			fmt.Printf("%4d %s owner\n", e.Index, e.Address)
		case e.Valid:
			fmt.Printf("%4d %s valid %s\n", e.Index, e.Address, formatRecords(e.Records))
		default:
			fmt.Printf("%4d %s spam:%s %s\n", e.Index, e.Address, e.Reason, formatRecords(e.Records))
		}
	}
	stats := resolver.Stats(entries)
	fmt.Printf("%d entries: %d valid, %d spam\n", stats.Total, stats.Valid, stats.Spam)
}

func formatRecords(records []document.Record) string {
	if records == nil {
		return ""
	}
	var parts []string
	for _, r := range records {
		parts = append(parts, fmt.Sprintf("%s:%s:%s", r.Type, r.Name, r.Value))
	}
	return strings.Join(parts, " ")
}

func cmdList(args []string) {
	const usage = `
List the domains with locally stored private keys.
`
	var settings namesSettings
	set := newOptionSet(args, "")
	settings.addCommonOptions(set)
	parseArgs(set, args, 0, usage)
	settings.apply()

	domains, err := newKeyStore(settings.baseDir).List()
	if err != nil {
		fatal(err)
	}
	for _, domain := range domains {
		fmt.Println(domain)
	}
}

func cmdExport(args []string) {
	const usage = `
Print a domain's private key in hex, for backup or transfer to
another machine. Anyone holding the key controls the domain.
`
	var settings namesSettings
	set := newOptionSet(args, "NAME")
	settings.addCommonOptions(set)
	parseArgs(set, args, 1, usage)
	if set.NArgs() < 1 {
		log.Print("Domain name argument missing.")
		os.Exit(exitUser)
	}
	settings.apply()
	domain := normalizeArg(set.Arg(0))

	priv, ok, err := newKeyStore(settings.baseDir).Get(domain)
	if err != nil {
		fatal(err)
	}
	if !ok {
		log.Printf("antns: %q: %v", domain, register.ErrNotOwner)
		os.Exit(exitUser)
	}
	fmt.Println(hex.Serialize(priv[:]))
}

func cmdImport(args []string) {
	const usage = `
Store a domain private key exported elsewhere. Refuses to replace an
existing key unless --force is given.
`
	var settings namesSettings
	set := newOptionSet(args, "NAME")
	settings.addCommonOptions(set)
	set.FlagLong(&settings.key, "key", 'k', "Private key in hex", "hex").Mandatory()
	set.FlagLong(&settings.force, "force", 0, "Replace an existing key")
	parseArgs(set, args, 1, usage)
	if set.NArgs() < 1 {
		log.Print("Domain name argument missing.")
		os.Exit(exitUser)
	}
	settings.apply()
	domain := normalizeArg(set.Arg(0))

	priv, err := crypto.PrivateKeyFromHex(strings.TrimSpace(settings.key))
	if err != nil {
		log.Printf("antns: invalid private key: %v", err)
		os.Exit(exitFormat)
	}
	ks := newKeyStore(settings.baseDir)
	if _, exists, err := ks.Get(domain); err != nil {
		fatal(err)
	} else if exists && !settings.force {
		log.Printf("antns: a key for %q already exists; use --force to replace it", domain)
		os.Exit(exitUser)
	}
	if err := ks.Put(domain, priv); err != nil {
		fatal(err)
	}
	pub := crypto.NewEd25519Signer(&priv).Public()
	fmt.Printf("imported key for %s, public key %s\n", domain, hex.Serialize(pub[:]))
}
