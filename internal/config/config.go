package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ndrandal/market-game/internal/game"
)

// DateLayout is the format of StartDate.
const DateLayout = "2006-01-02"

// Config holds all server configuration. Values come from, in increasing
// precedence: built-in defaults, the YAML file, environment, flags.
type Config struct {
	// Server
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// Database (empty URI = file saves only)
	MongoURI        string `yaml:"mongo_uri"`
	TxRetentionDays int    `yaml:"tx_retention_days"`
	TxLogBuffer     int    `yaml:"tx_log_buffer"`

	// Game
	Seed         int64         `yaml:"seed"`
	TickInterval time.Duration `yaml:"tick_interval"`
	TicksPerDay  int           `yaml:"ticks_per_day"`
	StartDate    string        `yaml:"start_date"`
	InitialCash  float64       `yaml:"initial_cash"`
	DrawSchedule string        `yaml:"draw_schedule"`

	// Saves
	SaveDir      string `yaml:"save_dir"`
	SaveMaxMB    int    `yaml:"save_max_mb"`
	SaveName     string `yaml:"save_name"`
	AutosaveCron string `yaml:"autosave_cron"`
	Resume       bool   `yaml:"resume"`

	// Transaction archiver (opt-in: only active when ArchiveDir is set)
	ArchiveDir           string `yaml:"archive_dir"`
	ArchiveMaxMB         int    `yaml:"archive_max_mb"`
	ArchiveIntervalHours int    `yaml:"archive_interval_hours"`
	ArchiveAfterHours    int    `yaml:"archive_after_hours"`

	// Feed
	SendBufferSize int `yaml:"send_buffer"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	opts := game.DefaultOptions()
	return &Config{
		Port:                 8100,
		Host:                 "0.0.0.0",
		TxRetentionDays:      30,
		TxLogBuffer:          4096,
		Seed:                 opts.Seed,
		TickInterval:         opts.BaseInterval,
		TicksPerDay:          opts.TicksPerDay,
		StartDate:            opts.StartDate.Format(DateLayout),
		InitialCash:          opts.InitialCash,
		DrawSchedule:         opts.DrawSchedule,
		SaveDir:              "saves",
		SaveMaxMB:            64,
		SaveName:             "autosave",
		AutosaveCron:         "*/5 * * * *",
		Resume:               true,
		ArchiveMaxMB:         1024,
		ArchiveIntervalHours: 6,
		ArchiveAfterHours:    24,
		SendBufferSize:       4096,
	}
}

// Load parses the process arguments, exiting on error.
func Load() *Config {
	c, err := Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("config: %v", err)
	}
	return c
}

// Parse builds a Config from args, the environment and the YAML file named
// by -config or GAME_CONFIG.
func Parse(args []string) (*Config, error) {
	c := Defaults()

	path := envStr("GAME_CONFIG", "")
	if p := configArg(args); p != "" {
		path = p
	}
	if path != "" {
		if err := c.readFile(path); err != nil {
			return nil, err
		}
	}

	fs := flag.NewFlagSet("marketgame", flag.ContinueOnError)
	fs.String("config", path, "YAML config file")

	fs.IntVar(&c.Port, "port", envInt("GAME_PORT", c.Port), "HTTP/WebSocket server port")
	fs.StringVar(&c.Host, "host", envStr("GAME_HOST", c.Host), "Listen host")

	fs.StringVar(&c.MongoURI, "mongo-uri", envStr("MONGO_URI", c.MongoURI), "MongoDB connection URI (empty = file saves only)")
	fs.IntVar(&c.TxRetentionDays, "tx-retention", envInt("TX_RETENTION_DAYS", c.TxRetentionDays), "Transaction log retention in days (0 = keep forever)")
	fs.IntVar(&c.TxLogBuffer, "tx-log-buffer", envInt("TX_LOG_BUFFER", c.TxLogBuffer), "Pending transaction log entries")

	fs.Int64Var(&c.Seed, "seed", envInt64("GAME_SEED", c.Seed), "PRNG seed")
	fs.DurationVar(&c.TickInterval, "tick-interval", envDuration("TICK_INTERVAL", c.TickInterval), "Wall time per tick at speed 1")
	fs.IntVar(&c.TicksPerDay, "ticks-per-day", envInt("TICKS_PER_DAY", c.TicksPerDay), "Ticks per game day")
	fs.StringVar(&c.StartDate, "start-date", envStr("START_DATE", c.StartDate), "First game day (YYYY-MM-DD)")
	fs.Float64Var(&c.InitialCash, "initial-cash", envFloat("INITIAL_CASH", c.InitialCash), "Starting cash")
	fs.StringVar(&c.DrawSchedule, "draw-schedule", envStr("DRAW_SCHEDULE", c.DrawSchedule), "Lottery draw days (cron spec on game dates)")

	fs.StringVar(&c.SaveDir, "save-dir", envStr("SAVE_DIR", c.SaveDir), "Directory for .sav files")
	fs.IntVar(&c.SaveMaxMB, "save-max-mb", envInt("SAVE_MAX_MB", c.SaveMaxMB), "Save directory size cap in MB (0 = unlimited)")
	fs.StringVar(&c.SaveName, "save-name", envStr("SAVE_NAME", c.SaveName), "Autosave slot name")
	fs.StringVar(&c.AutosaveCron, "autosave", envStr("AUTOSAVE_CRON", c.AutosaveCron), "Autosave schedule, wall clock (empty = disabled)")
	fs.BoolVar(&c.Resume, "resume", envBool("RESUME", c.Resume), "Load the latest save on startup")

	fs.StringVar(&c.ArchiveDir, "archive-dir", envStr("ARCHIVE_DIR", c.ArchiveDir), "Directory for archived transactions (empty = disabled)")
	fs.IntVar(&c.ArchiveMaxMB, "archive-max-mb", envInt("ARCHIVE_MAX_MB", c.ArchiveMaxMB), "Archive size cap in MB")
	fs.IntVar(&c.ArchiveIntervalHours, "archive-interval", envInt("ARCHIVE_INTERVAL_HOURS", c.ArchiveIntervalHours), "Hours between archive runs")
	fs.IntVar(&c.ArchiveAfterHours, "archive-after", envInt("ARCHIVE_AFTER_HOURS", c.ArchiveAfterHours), "Archive transactions older than this many hours")

	fs.IntVar(&c.SendBufferSize, "send-buffer", envInt("SEND_BUFFER", c.SendBufferSize), "Per-client send buffer size")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// configArg finds -config / --config in args without parsing the rest.
func configArg(args []string) string {
	for i, a := range args {
		name, val, hasVal := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasVal {
			return val
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// Validate checks value ranges and schedules.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.TicksPerDay <= 0 {
		return fmt.Errorf("ticks per day must be positive")
	}
	if c.InitialCash <= 0 {
		return fmt.Errorf("initial cash must be positive")
	}
	if _, err := time.Parse(DateLayout, c.StartDate); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if _, err := cron.ParseStandard(c.DrawSchedule); err != nil {
		return fmt.Errorf("draw schedule: %w", err)
	}
	if c.AutosaveCron != "" {
		if _, err := cron.ParseStandard(c.AutosaveCron); err != nil {
			return fmt.Errorf("autosave schedule: %w", err)
		}
	}
	if err := game.CheckSaveName(c.SaveName); err != nil {
		return err
	}
	return nil
}

// GameOptions converts the game section into game.Options.
func (c *Config) GameOptions() game.Options {
	start, _ := time.Parse(DateLayout, c.StartDate)
	return game.Options{
		Seed:         c.Seed,
		StartDate:    start,
		InitialCash:  c.InitialCash,
		TicksPerDay:  c.TicksPerDay,
		BaseInterval: c.TickInterval,
		DrawSchedule: c.DrawSchedule,
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
