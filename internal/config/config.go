package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/consensus"
	vcrypto "github.com/Whirlwind03/Blockchain-Dissertation-system/internal/crypto"
)

type Config struct {
	Chain   ChainConfig   `yaml:"chain"`
	Log     LogConfig     `yaml:"log"`
	Console ConsoleConfig `yaml:"console"`
}

type ChainConfig struct {
	Difficulty       int           `yaml:"difficulty"`
	Hash             string        `yaml:"hash"` // sha256|blake2b-256
	MaxAppendRetries int           `yaml:"maxAppendRetries"`
	MineTimeout      time.Duration `yaml:"mineTimeout"` // 0 disables
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|text|pretty
}

type ConsoleConfig struct {
	Banner bool `yaml:"banner"`
}

func Default() Config {
	return Config{
		Chain: ChainConfig{
			Difficulty:       3,
			Hash:             string(vcrypto.SHA256),
			MaxAppendRetries: 8,
			MineTimeout:      0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "pretty",
		},
		Console: ConsoleConfig{
			Banner: true,
		},
	}
}

type Parsed struct {
	Config Config
	// Path is the YAML file that was applied, if any.
	Path string
}

// ParseFlags layers configuration as defaults < YAML file < EVENTCHAIN_* env < flags.
func ParseFlags(name string, args []string, output io.Writer) (Parsed, error) {
	cfg := Default()

	path := configPathFromArgs(args)
	if path == "" {
		path = envOr("EVENTCHAIN_CONFIG", "")
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Parsed{}, err
		}
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output == nil {
		output = os.Stdout
	}
	fs.SetOutput(output)

	var (
		// Declared only so fs.Parse accepts -config; the path was resolved above.
		_ = fs.String("config", path, "Path to a YAML config file (EVENTCHAIN_CONFIG)")

		difficulty  = fs.Int("chain.difficulty", envOrInt("EVENTCHAIN_DIFFICULTY", cfg.Chain.Difficulty), "Leading zero hex characters required of a mined hash (0..64)")
		hashAlgo    = fs.String("chain.hash", envOr("EVENTCHAIN_HASH", cfg.Chain.Hash), "Block digest: sha256|blake2b-256")
		maxRetries  = fs.Int("chain.maxAppendRetries", envOrInt("EVENTCHAIN_MAX_APPEND_RETRIES", cfg.Chain.MaxAppendRetries), "Re-mining attempts when the tip moves during an append")
		mineTimeout = fs.Duration("chain.mineTimeout", envOrDuration("EVENTCHAIN_MINE_TIMEOUT", cfg.Chain.MineTimeout), "Abandon a single append after this long (0 = never)")

		logLevel  = fs.String("log.level", envOr("EVENTCHAIN_LOG_LEVEL", cfg.Log.Level), "Log level: debug|info|warn|error")
		logFormat = fs.String("log.format", envOr("EVENTCHAIN_LOG_FORMAT", cfg.Log.Format), "Log format: json|text|pretty")

		banner = fs.Bool("console.banner", envOrBool("EVENTCHAIN_BANNER", cfg.Console.Banner), "Show the start-up banner")
	)

	if err := fs.Parse(args); err != nil {
		return Parsed{}, err
	}

	cfg.Chain.Difficulty = *difficulty
	cfg.Chain.Hash = strings.TrimSpace(*hashAlgo)
	cfg.Chain.MaxAppendRetries = *maxRetries
	cfg.Chain.MineTimeout = *mineTimeout
	cfg.Log.Level = strings.TrimSpace(*logLevel)
	cfg.Log.Format = strings.TrimSpace(*logFormat)
	cfg.Console.Banner = *banner

	if err := validate(cfg); err != nil {
		return Parsed{}, err
	}

	return Parsed{Config: cfg, Path: path}, nil
}

// HashAlgorithm returns the parsed chain.hash value.
func (c ChainConfig) HashAlgorithm() vcrypto.Algorithm {
	a, err := vcrypto.ParseAlgorithm(c.Hash)
	if err != nil {
		return vcrypto.SHA256
	}
	return a
}

func validate(cfg Config) error {
	if cfg.Chain.Difficulty < 0 || cfg.Chain.Difficulty > consensus.MaxDifficulty {
		return fmt.Errorf("chain.difficulty out of range: %d", cfg.Chain.Difficulty)
	}
	if _, err := vcrypto.ParseAlgorithm(cfg.Chain.Hash); err != nil {
		return fmt.Errorf("invalid chain.hash: %w", err)
	}
	if cfg.Chain.MaxAppendRetries <= 0 || cfg.Chain.MaxAppendRetries > 1024 {
		return fmt.Errorf("chain.maxAppendRetries out of range: %d", cfg.Chain.MaxAppendRetries)
	}
	if cfg.Chain.MineTimeout < 0 {
		return errors.New("chain.mineTimeout must not be negative")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", cfg.Log.Level)
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text", "pretty":
	default:
		return fmt.Errorf("invalid log.format: %q", cfg.Log.Format)
	}
	return nil
}

// configPathFromArgs finds -config before full flag parsing so the file can
// supply the flag defaults.
func configPathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return strings.TrimSpace(v)
		}
		if name == "config" && i+1 < len(args) {
			return strings.TrimSpace(args[i+1])
		}
	}
	return ""
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envOrInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
