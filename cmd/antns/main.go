// The antns command manages and serves names under the .ant zone:
// registration and updates, lookups and history against the storage
// network, and the local DNS + HTTP proxy servers that make the names
// browsable.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/pborman/getopt/v2"

	"antns.org/antns-go/internal/version"
	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/casclient"
	"antns.org/antns-go/pkg/keystore"
	"antns.org/antns-go/pkg/name"
	"antns.org/antns-go/pkg/register"
	"antns.org/antns-go/pkg/resolver"
)

// Exit codes: 1 for user errors (bad name, unknown domain), 2 for
// crypto or format errors, 3 for network trouble.
const (
	exitUser    = 1
	exitFormat  = 2
	exitNetwork = 3
)

func main() {
	const usage = `
Decentralized naming under the .ant zone.

Usage: antns [--help|help] [--version|version]
   or: antns register [options] NAME [TARGET]
   or: antns lookup [options] NAME
   or: antns update [options] NAME [TARGET]
   or: antns history [options] NAME
   or: antns list [options]
   or: antns export [options] NAME
   or: antns import [options] NAME
   or: antns serve [options]
   or: antns status [options]
   or: antns stop [options]

Options:
      --help     Show usage message and exit
  -v, --version  Show program version and exit
`
	log.SetFlags(0)
	if len(os.Args) < 2 {
		log.Fatal(usage[1:])
	}

	switch os.Args[1] {
	default:
		log.Fatal(usage[1:])
	case "help", "--help":
		fmt.Print(usage[1:])
		os.Exit(0)
	case "version", "--version", "-v":
		version.DisplayVersion("antns")
		os.Exit(0)
	case "register":
		cmdRegister(os.Args)
	case "lookup":
		cmdLookup(os.Args)
	case "update":
		cmdUpdate(os.Args)
	case "history":
		cmdHistory(os.Args)
	case "list":
		cmdList(os.Args)
	case "export":
		cmdExport(os.Args)
	case "import":
		cmdImport(os.Args)
	case "serve":
		cmdServe(os.Args)
	case "status":
		cmdStatus(os.Args)
	case "stop":
		cmdStop(os.Args)
	}
}

func newOptionSet(args []string, params string) *getopt.Set {
	set := getopt.New()
	set.SetProgram(args[0] + " " + args[1])
	set.SetParameters(params)
	return set
}

// Also adds and processes the help option.
func parseArgs(set *getopt.Set, args []string, maxArgs int, usage string) {
	help := false
	set.FlagLong(&help, "help", 0, "Show usage message and exit")
	err := set.Getopt(args[1:], nil)
	// Check help first; if seen, ignore errors about missing mandatory arguments.
	if help {
		fmt.Print(usage[1:] + "\n")
		set.PrintUsage(os.Stdout)
		os.Exit(0)
	}
	if err != nil {
		log.Printf("err: %v\n", err)
		set.PrintUsage(log.Writer())
		os.Exit(exitUser)
	}
	if set.NArgs() > maxArgs {
		log.Print("Too many arguments.")
		os.Exit(exitUser)
	}
}

// fatal classifies err into the documented exit codes and exits.
func fatal(err error) {
	log.Printf("antns: %v", err)
	switch {
	case errors.Is(err, resolver.ErrNotRegistered),
		errors.Is(err, register.ErrAlreadyRegistered),
		errors.Is(err, register.ErrNotOwner):
		os.Exit(exitUser)
	case errors.Is(err, cas.ErrUnavailable), errors.Is(err, cas.ErrPayment),
		errors.Is(err, cas.ErrNotFound):
		os.Exit(exitNetwork)
	case errors.Is(err, resolver.ErrCorrupt):
		os.Exit(exitFormat)
	default:
		os.Exit(exitFormat)
	}
}

// normalizeArg validates the positional domain name; bad names are
// user errors.
func normalizeArg(domain string) string {
	normalized, err := name.Normalize(domain)
	if err != nil {
		log.Printf("antns: %v", err)
		os.Exit(exitUser)
	}
	return normalized
}

func newCASClient(url string) *casclient.Client {
	if url == "" {
		url = os.Getenv("ANTNS_GATEWAY")
	}
	return casclient.New(casclient.Config{
		UserAgent: "antns/" + version.ModuleVersion(),
		URL:       url,
	})
}

func defaultBaseDir() (string, error) {
	return keystore.DefaultBaseDir()
}

func newKeyStore(baseDir string) *keystore.Store {
	if baseDir == "" {
		var err error
		baseDir, err = keystore.DefaultBaseDir()
		if err != nil {
			log.Printf("antns: %v", err)
			os.Exit(exitUser)
		}
	}
	return keystore.New(baseDir)
}
