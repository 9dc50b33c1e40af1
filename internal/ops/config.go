package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Sports []string `json:"sports"`

	AutoSubscribeDelayMs int64 `json:"autoSubscribeDelayMs"`
	SubscribeCheckMs     int64 `json:"subscribeCheckMs"`
	SweepIntervalMs      int64 `json:"sweepIntervalMs"`

	QuoteTTLMs       int64  `json:"quoteTtlMs"`
	QuoteFreshnessMs int64  `json:"quoteFreshnessMs"`
	RequiredStake    string `json:"requiredStake"`
	RequiredCurrency string `json:"requiredCurrency"`

	BookiePriority map[string]int `json:"bookiePriority"`

	QueueCapacity int    `json:"queueCapacity"`
	CtlSocket     string `json:"ctlSocket"`

	Features FeatureFlagsConfig `json:"features"`
}

// FeatureFlagsConfig captures optional runtime flags.
type FeatureFlagsConfig struct {
	EnableWatch *bool `json:"enableWatch"`
	EnableCtl   *bool `json:"enableCtl"`
}

// FeatureFlags are resolved runtime flags.
type FeatureFlags struct {
	EnableWatch bool
	EnableCtl   bool
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Sports []string

	AutoSubscribeDelay time.Duration
	SubscribeCheck     time.Duration
	SweepInterval      time.Duration

	QuoteTTL         time.Duration
	QuoteFreshness   time.Duration
	RequiredStake    decimal.Decimal
	RequiredCurrency string

	BookiePriority map[string]int

	QueueCapacity int
	CtlSocket     string

	Features FeatureFlags
}

// Default returns the configuration used when no file is given.
func Default() Loaded {
	return Loaded{
		Sports:             []string{"basket"},
		AutoSubscribeDelay: 10 * time.Second,
		SubscribeCheck:     30 * time.Second,
		SweepInterval:      5 * time.Second,
		QuoteTTL:           30 * time.Second,
		QuoteFreshness:     30 * time.Second,
		RequiredStake:      decimal.NewFromInt(10),
		RequiredCurrency:   "GBP",
		BookiePriority:     map[string]int{"bf": 3, "bdaq": 2, "mbook": 1},
		QueueCapacity:      1024,
		CtlSocket:          "",
		Features:           FeatureFlags{EnableWatch: true, EnableCtl: false},
	}
}

// Load reads a JSON config file and resolves it against the defaults.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	loaded := Default()

	if len(cfg.Sports) > 0 {
		loaded.Sports = cfg.Sports
	}
	if err := applyInterval(&loaded.AutoSubscribeDelay, cfg.AutoSubscribeDelayMs, "autoSubscribeDelayMs"); err != nil {
		return Loaded{}, err
	}
	if err := applyInterval(&loaded.SubscribeCheck, cfg.SubscribeCheckMs, "subscribeCheckMs"); err != nil {
		return Loaded{}, err
	}
	if err := applyInterval(&loaded.SweepInterval, cfg.SweepIntervalMs, "sweepIntervalMs"); err != nil {
		return Loaded{}, err
	}
	if err := applyInterval(&loaded.QuoteTTL, cfg.QuoteTTLMs, "quoteTtlMs"); err != nil {
		return Loaded{}, err
	}
	if err := applyInterval(&loaded.QuoteFreshness, cfg.QuoteFreshnessMs, "quoteFreshnessMs"); err != nil {
		return Loaded{}, err
	}
	if cfg.RequiredStake != "" {
		stake, err := decimal.NewFromString(cfg.RequiredStake)
		if err != nil {
			return Loaded{}, fmt.Errorf("invalid requiredStake: %w", err)
		}
		if stake.Sign() <= 0 {
			return Loaded{}, fmt.Errorf("requiredStake must be > 0")
		}
		loaded.RequiredStake = stake
	}
	if cfg.RequiredCurrency != "" {
		loaded.RequiredCurrency = cfg.RequiredCurrency
	}
	if len(cfg.BookiePriority) > 0 {
		loaded.BookiePriority = cfg.BookiePriority
	}
	if cfg.QueueCapacity < 0 {
		return Loaded{}, fmt.Errorf("queueCapacity must be >= 0")
	}
	if cfg.QueueCapacity > 0 {
		loaded.QueueCapacity = cfg.QueueCapacity
	}
	if cfg.CtlSocket != "" {
		loaded.CtlSocket = cfg.CtlSocket
	}
	if cfg.Features.EnableWatch != nil {
		loaded.Features.EnableWatch = *cfg.Features.EnableWatch
	}
	if cfg.Features.EnableCtl != nil {
		loaded.Features.EnableCtl = *cfg.Features.EnableCtl
	}
	if loaded.Features.EnableCtl && loaded.CtlSocket == "" {
		return Loaded{}, fmt.Errorf("ctlSocket is required when features.enableCtl is set")
	}
	return loaded, nil
}

func applyInterval(dst *time.Duration, ms int64, name string) error {
	if ms < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	if ms > 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
	return nil
}
