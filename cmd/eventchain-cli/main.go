package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/blockchain"
	vcrypto "github.com/Whirlwind03/Blockchain-Dissertation-system/internal/crypto"
	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/logging"
	"github.com/Whirlwind03/Blockchain-Dissertation-system/pkg/types"
	"github.com/Whirlwind03/Blockchain-Dissertation-system/pkg/version"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	badColor  = color.New(color.FgRed, color.Bold)
	infoColor = color.New(color.FgCyan)
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "version":
		runVersion(os.Stdout)
	case "hash":
		err = runHash(os.Args[2:], os.Stdout)
	case "mine":
		err = runMine(os.Args[2:], os.Stdout)
	case "demo":
		var ok bool
		ok, err = runDemo(os.Args[2:], os.Stdout)
		if err == nil && !ok {
			os.Exit(1)
		}
	default:
		usage(os.Stdout)
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `eventchain CLI

Usage:
  eventchain-cli version
  eventchain-cli hash --index <n> --prev <hash> --time <RFC3339> --data <json> [--nonce <n>] [--hash sha256|blake2b-256]
  eventchain-cli mine --data <json> [--difficulty <n>] [--index <n>] [--prev <hash>] [--timeout <dur>]
  eventchain-cli demo [--difficulty <n>]

Notes:
  - data is a JSON object; keys are sorted before hashing.
  - timestamps are hashed in UTC using the C ctime layout.
  - demo builds a chain, tampers with block 1, and exits 1 if validation misses it.
`)
}

func runVersion(w io.Writer) {
	v := version.Get()
	fmt.Fprintf(w, "eventchain CLI\nVersion: %s\nCommit:  %s\nGo:      %s\nTarget:  %s\n",
		v.Version, v.Commit, v.GoVersion, v.Platform)
}

// runHash recomputes a block digest from explicit fields.
func runHash(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(w)
	index := fs.Uint64("index", 0, "Block index")
	prev := fs.String("prev", blockchain.GenesisPrevHash, "Previous block hash")
	ts := fs.String("time", "", "Block timestamp (RFC3339)")
	data := fs.String("data", "{}", "Payload as a JSON object")
	nonce := fs.Uint64("nonce", 0, "Nonce")
	algo := fs.String("hash", string(vcrypto.SHA256), "Digest: sha256|blake2b-256")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*ts) == "" {
		return errors.New("--time is required")
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*ts))
	if err != nil {
		return fmt.Errorf("--time: %w", err)
	}
	payload, err := parsePayload(*data)
	if err != nil {
		return err
	}
	a, err := vcrypto.ParseAlgorithm(*algo)
	if err != nil {
		return err
	}

	b, err := blockchain.NewBlockWithAlgorithm(a, *index, *prev, t, payload, *nonce)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, b.Hash)
	return nil
}

func runMine(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("mine", flag.ContinueOnError)
	fs.SetOutput(w)
	data := fs.String("data", "", "Payload as a JSON object")
	difficulty := fs.Int("difficulty", 3, "Leading zero hex characters")
	index := fs.Uint64("index", 1, "Block index")
	prev := fs.String("prev", blockchain.GenesisPrevHash, "Previous block hash")
	timeout := fs.Duration("timeout", 0, "Give up after this long (0 = never)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*data) == "" {
		return errors.New("--data is required")
	}
	payload, err := parsePayload(*data)
	if err != nil {
		return err
	}

	b, err := blockchain.NewBlock(*index, *prev, time.Now(), payload, 0)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	start := time.Now()
	if err := b.Mine(ctx, *difficulty); err != nil {
		return err
	}
	infoColor.Fprintf(w, "Block %d mined in %s\n", b.Index, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(w, "timestamp: %s\nnonce:     %d\nhash:      %s\n", blockchain.FormatTimestamp(b.Timestamp), b.Nonce, b.Hash)
	return nil
}

// runDemo appends two events, validates, tampers with block 1 and validates
// again. It reports whether validation caught the tampering.
func runDemo(args []string, w io.Writer) (bool, error) {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(w)
	difficulty := fs.Int("difficulty", 2, "Leading zero hex characters")
	logLevel := fs.String("log.level", "warn", "Log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return false, err
	}

	log := logging.New(logging.Config{Level: *logLevel, Format: "text", Output: os.Stderr})
	chain, err := blockchain.New(blockchain.Options{Difficulty: *difficulty, Logger: log})
	if err != nil {
		return false, err
	}

	ctx := context.Background()
	for _, ev := range []string{"A", "B"} {
		b, err := chain.Append(ctx, blockchain.Payload{"event": ev})
		if err != nil {
			return false, err
		}
		infoColor.Fprintf(w, "appended block %d (event %s): %s\n", b.Index, ev, b.Hash)
	}

	before := chain.Validate()
	printVerdict(w, "before tampering", before)

	if err := chain.Corrupt(1, blockchain.Payload{"event": "X"}); err != nil {
		return false, err
	}
	after := chain.Validate()
	printVerdict(w, "after tampering", after)

	caught := before.Valid && !after.Valid && after.Index == 1 && after.Kind == types.HashMismatch
	log.Debug("demo finished", slog.Bool("caught", caught))
	return caught, nil
}

func printVerdict(w io.Writer, label string, res types.ValidationResult) {
	if res.Valid {
		okColor.Fprintf(w, "%s: chain valid\n", label)
		return
	}
	badColor.Fprintf(w, "%s: chain invalid (%s at block %d)\n", label, res.Kind, res.Index)
}

// parsePayload keeps numbers as json.Number so they re-encode exactly as given.
func parsePayload(s string) (blockchain.Payload, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var p blockchain.Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("--data must be a JSON object: %w", err)
	}
	if dec.More() {
		return nil, errors.New("--data must be a single JSON object")
	}
	return p, nil
}

func fatal(err error) {
	_, _ = os.Stderr.WriteString("eventchain-cli error: " + err.Error() + "\n")
	os.Exit(1)
}
