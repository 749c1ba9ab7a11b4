package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Venue controls the simulated execution venue.
type Venue struct {
	Seed int64 `yaml:"seed"` // 0 = seed from wall clock
	// RejectRatio is the fraction of new orders the venue rejects outright.
	RejectRatio float64 `yaml:"reject_ratio"`
	// MalformedRatio is the fraction of execution reports emitted with a
	// required field missing, to exercise the normalizer's drop path.
	MalformedRatio float64 `yaml:"malformed_ratio"`
	// MaxFillsPerOrder caps how many partial fills an order is sliced into.
	MaxFillsPerOrder int `yaml:"max_fills_per_order"`
	// QueueSize bounds the venue's outbound report channel.
	QueueSize int `yaml:"queue_size"`
}

// Generator controls the synthetic order window.
type Generator struct {
	Enabled     bool          `yaml:"enabled"`
	Symbols     []string      `yaml:"symbols"`
	Interval    time.Duration `yaml:"interval"`
	Window      time.Duration `yaml:"window"`
	MaxOrders   int           `yaml:"max_orders"`
	MaxQty      int64         `yaml:"max_qty"`
	MinPrice    float64       `yaml:"min_price"`
	MaxPrice    float64       `yaml:"max_price"`
	CancelRatio float64       `yaml:"cancel_ratio"`
}

// Storage holds paths for the event journal and snapshot store.
type Storage struct {
	DataDir   string `yaml:"data_dir"`
	StatsFile string `yaml:"stats_file"`
}

type API struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	File string `yaml:"file"`
}

type Config struct {
	Venue     Venue     `yaml:"venue"`
	Generator Generator `yaml:"generator"`
	Storage   Storage   `yaml:"storage"`
	API       API       `yaml:"api"`
	Logging   Logging   `yaml:"logging"`
}

func Default() Config {
	return Config{
		Venue: Venue{
			RejectRatio:      0.05,
			MalformedRatio:   0.01,
			MaxFillsPerOrder: 4,
			QueueSize:        1024,
		},
		Generator: Generator{
			Enabled:     true,
			Symbols:     []string{"MSFT", "AAPL", "BAC"},
			Interval:    100 * time.Millisecond,
			Window:      5 * time.Minute,
			MaxOrders:   1000,
			MaxQty:      100,
			MinPrice:    100,
			MaxPrice:    200,
			CancelRatio: 0.1,
		},
		Storage: Storage{
			DataDir:   "data/recon.db",
			StatsFile: "data/market_stats.txt",
		},
		API:     API{Addr: ":8080"},
		Logging: Logging{File: "data/recond.log"},
	}
}

// Load reads an optional YAML file, then applies .env / environment
// overrides. Priority: ENV > .env file > YAML > defaults.
func Load(yamlPath, envPath string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}
	applyEnvOverrides(&cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("STATS_FILE"); v != "" {
		cfg.Storage.StatsFile = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("VENUE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Venue.Seed = n
		}
	}
	if v := os.Getenv("GEN_ENABLED"); v != "" {
		cfg.Generator.Enabled = v == "true"
	}
	if v := os.Getenv("GEN_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Generator.Interval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("GEN_WINDOW_SEC"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.Generator.Window = time.Duration(s) * time.Second
		}
	}
	if v := os.Getenv("GEN_MAX_ORDERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generator.MaxOrders = n
		}
	}
}
