package cfg

import (
	"flag"
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/denisbrodbeck/machineid"
	"github.com/maxpert/pathglob/glob"
	"github.com/rs/zerolog/log"
)

// EndpointConfiguration describes a source or sink
type EndpointConfiguration struct {
	Type string `toml:"type"` // "stdio", "nats" or "kafka"

	// stdio
	Path string `toml:"path"` // File path, "" or "-" for stdin/stdout

	// nats
	NatsURL   string `toml:"nats_url"`
	Subject   string `toml:"subject"`   // Source subject
	Queue     string `toml:"queue"`     // Source queue group
	JetStream bool   `toml:"jetstream"` // Sink publishes through JetStream

	// kafka
	Brokers   []string `toml:"brokers"`
	Topic     string   `toml:"topic"`    // Source topic
	GroupID   string   `toml:"group_id"` // Source consumer group
	BatchSize int      `toml:"batch_size"`
}

// GlobConfiguration selects the pattern engine
type GlobConfiguration struct {
	Engine    string `toml:"engine"`     // "gobwas" or "doublestar"
	CacheSize int    `toml:"cache_size"` // Decision cache entries, 0 disables
}

// PipelineConfiguration controls how records move from source to sink
type PipelineConfiguration struct {
	Name            string  `toml:"name"`
	Codec           string  `toml:"codec"`       // "json" or "msgpack"
	Compression     string  `toml:"compression"` // "none" or "zstd"
	Topic           string  `toml:"topic"`       // Sink topic, "{event}" is replaced
	RetryInitialMS  int     `toml:"retry_initial_ms"`
	RetryMaxMS      int     `toml:"retry_max_ms"`
	RetryMultiplier float64 `toml:"retry_multiplier"`
	MaxRetries      int     `toml:"max_retries"`
}

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// PrometheusConfiguration for metrics
type PrometheusConfiguration struct {
	Enabled bool `toml:"enabled"`
}

// AdminConfiguration for the admin HTTP API
type AdminConfiguration struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
	Port        int    `toml:"port"`
	Secret      string `toml:"secret"` // Empty disables authentication
}

// Configuration is the main configuration structure
type Configuration struct {
	InstanceID uint64 `toml:"instance_id"`

	// Events maps event names to filter values: "*", a pattern, a list of
	// patterns, or a table with include and/or exclude
	Events map[string]any `toml:"events"`

	Glob       GlobConfiguration       `toml:"glob"`
	Source     EndpointConfiguration   `toml:"source"`
	Sink       EndpointConfiguration   `toml:"sink"`
	Pipeline   PipelineConfiguration   `toml:"pipeline"`
	Logging    LoggingConfiguration    `toml:"logging"`
	Prometheus PrometheusConfiguration `toml:"prometheus"`
	Admin      AdminConfiguration      `toml:"admin"`
}

// Command line flags
var (
	ConfigPathFlag = flag.String("config", "pathglob.toml", "Path to configuration file")
	EngineFlag     = flag.String("engine", "", "Glob engine (overrides config)")
	AdminPortFlag  = flag.Int("admin-port", 0, "Admin API port (overrides config)")
	VerboseFlag    = flag.Bool("verbose", false, "Enable debug logging (overrides config)")
)

// Default configuration
var Config = Default()

// Default returns the default configuration
func Default() *Configuration {
	return &Configuration{
		InstanceID: 0, // Auto-generate
		Events:     map[string]any{},

		Glob: GlobConfiguration{
			Engine:    "gobwas",
			CacheSize: 4096,
		},

		Source: EndpointConfiguration{Type: "stdio"},
		Sink:   EndpointConfiguration{Type: "stdio"},

		Pipeline: PipelineConfiguration{
			Name:            "default",
			Codec:           "json",
			Compression:     "none",
			RetryInitialMS:  100,
			RetryMaxMS:      30000,
			RetryMultiplier: 2.0,
			MaxRetries:      100,
		},

		Logging: LoggingConfiguration{
			Verbose: false,
			Format:  "console",
		},

		Prometheus: PrometheusConfiguration{
			Enabled: true,
		},

		Admin: AdminConfiguration{
			Enabled:     false,
			BindAddress: "127.0.0.1",
			Port:        9191,
		},
	}
}

// Load loads configuration from file and applies CLI overrides
func Load(configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, Config); err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	applyFlags()

	if Config.InstanceID == 0 {
		var err error
		Config.InstanceID, err = generateInstanceID()
		if err != nil {
			return fmt.Errorf("failed to generate instance ID: %w", err)
		}
		log.Info().Uint64("instance_id", Config.InstanceID).Msg("Auto-generated instance ID")
	}

	return nil
}

// Decode parses configuration from TOML text on top of the defaults
func Decode(data string) (*Configuration, error) {
	c := Default()
	if _, err := toml.Decode(data, c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, nil
}

func applyFlags() {
	if *EngineFlag != "" {
		Config.Glob.Engine = *EngineFlag
	}
	if *AdminPortFlag != 0 {
		Config.Admin.Enabled = true
		Config.Admin.Port = *AdminPortFlag
	}
	if *VerboseFlag {
		Config.Logging.Verbose = true
	}
}

// generateInstanceID derives a stable instance ID from the machine ID
func generateInstanceID() (uint64, error) {
	id, err := machineid.ProtectedID("pathglob")
	if err != nil {
		return 0, err
	}

	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64(), nil
}

// InstanceLabel returns the instance ID formatted for metric labels
func InstanceLabel() string {
	return strconv.FormatUint(Config.InstanceID, 10)
}

// IsAdminAuthEnabled reports whether admin requests must carry the secret
func IsAdminAuthEnabled() bool {
	return Config.Admin.Secret != ""
}

var validEndpoints = map[string]bool{"stdio": true, "nats": true, "kafka": true}

// Validate checks configuration for errors
func Validate() error {
	return Config.Validate()
}

// Validate checks c for errors
func (c *Configuration) Validate() error {
	if err := validateEndpoint("source", c.Source); err != nil {
		return err
	}
	if err := validateEndpoint("sink", c.Sink); err != nil {
		return err
	}

	if c.Source.Type == "nats" && c.Source.Subject == "" {
		return fmt.Errorf("nats source requires subject")
	}
	if c.Source.Type == "kafka" && c.Source.Topic == "" {
		return fmt.Errorf("kafka source requires topic")
	}
	if c.Sink.Type != "stdio" && c.Pipeline.Topic == "" {
		return fmt.Errorf("%s sink requires pipeline topic", c.Sink.Type)
	}

	switch strings.ToLower(c.Pipeline.Codec) {
	case "", "json", "msgpack":
	default:
		return fmt.Errorf("invalid codec: %s", c.Pipeline.Codec)
	}

	switch strings.ToLower(c.Pipeline.Compression) {
	case "", "none", "zstd":
	default:
		return fmt.Errorf("invalid compression: %s", c.Pipeline.Compression)
	}

	if c.Pipeline.RetryInitialMS < 0 || c.Pipeline.RetryMaxMS < 0 {
		return fmt.Errorf("retry delays must be >= 0")
	}
	if c.Pipeline.RetryMultiplier < 0 {
		return fmt.Errorf("retry multiplier must be >= 0")
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0")
	}

	if _, err := glob.Lookup(c.Glob.Engine); err != nil {
		return err
	}
	if c.Glob.CacheSize < 0 {
		return fmt.Errorf("glob cache size must be >= 0")
	}

	if c.Admin.Enabled && (c.Admin.Port < 1 || c.Admin.Port > 65535) {
		return fmt.Errorf("invalid admin port: %d", c.Admin.Port)
	}

	return nil
}

func validateEndpoint(role string, e EndpointConfiguration) error {
	if !validEndpoints[e.Type] {
		return fmt.Errorf("invalid %s type: %q", role, e.Type)
	}
	if e.Type == "nats" && e.NatsURL == "" {
		return fmt.Errorf("nats %s requires nats_url", role)
	}
	if e.Type == "kafka" && len(e.Brokers) == 0 {
		return fmt.Errorf("kafka %s requires at least one broker", role)
	}
	return nil
}
