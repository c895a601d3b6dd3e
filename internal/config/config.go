// Package config handles loading and parsing application configuration.
//
// blockfest-api reads a YAML file named by (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every field can be overridden by its env:"..." variable.
//
// ticketctl has no file: LoadClient reads only the environment, after
// merging a .env file from the working directory if there is one.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Auth modes.
const (
	AuthFirebase = "firebase"
	AuthHMAC     = "hmac"
)

// Config is the blockfest-api configuration.
//
// env-required:"true" means the app refuses to start if that value is
// missing.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging", "prod".
	Env string `yaml:"env" env:"ENV" env-required:"true" validate:"oneof=dev staging prod"`

	HTTPServer  HTTPServer  `yaml:"http_server"`
	VIPRegistry VIPRegistry `yaml:"vip_registry"`
	VIPCheck    VIPCheck    `yaml:"vip_check"`
	Auth        Auth        `yaml:"auth"`
	Ledger      Ledger      `yaml:"ledger"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:5001".
	Addr       string `yaml:"address"     env:"HTTP_SERVER_ADDR" env-required:"true"`
	CORSOrigin string `yaml:"cors_origin" env:"CORS_ORIGIN"      env-default:"*"`
}

// VIPRegistry locates the allowlist file.
type VIPRegistry struct {
	Path string `yaml:"path" env:"VIP_LIST_PATH" env-required:"true"`

	// Bootstrap creates the file with a header and an example row when
	// it does not exist.
	Bootstrap bool          `yaml:"bootstrap" env:"VIP_LIST_BOOTSTRAP" env-default:"false"`
	Debounce  time.Duration `yaml:"debounce"  env:"VIP_LIST_DEBOUNCE"  env-default:"50ms"`
}

// VIPCheck throttles POST /api/check-vip per authenticated subject.
// Zero disables the cooldown.
type VIPCheck struct {
	Cooldown time.Duration `yaml:"cooldown" env:"VIP_CHECK_COOLDOWN" env-default:"10s" validate:"gte=0"`
}

// Auth selects how bearer credentials are verified.
type Auth struct {
	Mode              string `yaml:"mode"                env:"AUTH_MODE"           env-default:"firebase" validate:"oneof=firebase hmac"`
	FirebaseProjectID string `yaml:"firebase_project_id" env:"FIREBASE_PROJECT_ID"`
	HMACSecret        string `yaml:"hmac_secret"         env:"AUTH_HMAC_SECRET"`

	// Service-account key file. Empty uses application default credentials.
	FirebaseCredentialsFile string `yaml:"firebase_credentials_file" env:"FIREBASE_CREDENTIALS_FILE"`
}

// Ledger locates the event contracts. An empty RPCURL runs the server
// without a ledger: ticket routes then answer empty or 503.
type Ledger struct {
	RPCURL              string        `yaml:"rpc_url"               env:"ETH_RPC_URL"`
	EventManagerAddress string        `yaml:"event_manager_address" env:"CONTRACT_ADDRESS"     validate:"omitempty,eth_addr"`
	TicketNFTAddress    string        `yaml:"ticket_nft_address"    env:"TICKET_NFT_ADDRESS"   validate:"omitempty,eth_addr"`
	CallTimeout         time.Duration `yaml:"call_timeout"          env:"LEDGER_CALL_TIMEOUT"  env-default:"5s" validate:"gt=0"`
	FetchConcurrency    int           `yaml:"fetch_concurrency"     env:"LEDGER_FETCH_CONCURRENCY" env-default:"8" validate:"gt=0"`
}

// Enabled reports whether a ledger is configured.
func (l Ledger) Enabled() bool { return l.RPCURL != "" }

var validate = validator.New()

// Validate checks field formats and the settings that depend on each other.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Auth.Mode {
	case AuthFirebase:
		if c.Auth.FirebaseProjectID == "" {
			return errors.New("config: auth.firebase_project_id is required in firebase mode")
		}
	case AuthHMAC:
		if c.Auth.HMACSecret == "" {
			return errors.New("config: auth.hmac_secret is required in hmac mode")
		}
	}
	if c.Ledger.Enabled() && c.Ledger.EventManagerAddress == "" {
		return errors.New("config: ledger.event_manager_address is required when ledger.rpc_url is set")
	}
	return nil
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad resolves the config path, loads it and exits on any failure.
// If this function returns, the config is valid.
func MustLoad() *Config {
	// ── Source 1: environment variable ───────────────────────────────
	configPath := os.Getenv("CONFIG_PATH")

	// ── Source 2: command-line flag ───────────────────────────────────
	//   go run ./cmd/blockfest-api --config=config/local.yaml
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}
	return cfg
}

// Client is the ticketctl configuration.
type Client struct {
	Env    string `env:"ENV" env-default:"dev"`
	APIURL string `env:"BLOCKFEST_API_URL" env-default:"http://localhost:5001"`

	// IDToken is the bearer credential sent to check-vip.
	IDToken string `env:"BLOCKFEST_ID_TOKEN"`

	// HMACSecret lets `ticketctl token` mint development credentials.
	HMACSecret string `env:"AUTH_HMAC_SECRET"`

	PrivateKey     string        `env:"WALLET_PRIVATE_KEY"`
	ChainID        int64         `env:"CHAIN_ID"        env-default:"31337"`
	ConfirmTimeout time.Duration `env:"CONFIRM_TIMEOUT" env-default:"2m"`
	JournalPath    string        `env:"JOURNAL_PATH"    env-default:"ticketctl.db"`

	// CatalogPath names the YAML file of tickets on sale. Empty uses the
	// built-in BlockFest catalog.
	CatalogPath string `env:"TICKET_CATALOG_PATH"`

	Ledger Ledger
}

// LoadClient reads the ticketctl configuration from the environment.
// envFiles are merged into the environment first; missing files are
// skipped. Variables already set win over the files.
func LoadClient(envFiles ...string) (*Client, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config.LoadClient: %s: %w", f, err)
		}
	}

	var cfg Client
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config.LoadClient: %w", err)
	}
	if err := validate.Struct(cfg.Ledger); err != nil {
		return nil, fmt.Errorf("config.LoadClient: %w", err)
	}
	return &cfg, nil
}
