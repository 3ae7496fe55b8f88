package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "PRINTSCOUT_CONFIG"
	apifyTokenEnv      = "APIFY_API_TOKEN"
	printifyTokenEnv   = "PRINTIFY_API_TOKEN"
	printifyShopIDEnv  = "PRINTIFY_SHOP_ID"
	gcsCredentialsEnv  = "GOOGLE_APPLICATION_CREDENTIALS"
	gcsBucketEnv       = "GCS_BUCKET_NAME"
	targetProfilesEnv  = "TARGET_PROFILES"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Vision   VisionConfig   `yaml:"vision"`
	Printify PrintifyConfig `yaml:"printify"`
	Batch    BatchConfig    `yaml:"batch"`
	Scoring  ScoringConfig  `yaml:"scoring"`
}

// LoggingConfig controls log verbosity and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig describes local layout and the optional cloud bucket.
type StorageConfig struct {
	BaseDir         string `yaml:"baseDir"`
	Bucket          string `yaml:"bucket"`
	Project         string `yaml:"project"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// LedgerPath resolves the dedup ledger database file under the base directory.
func (s StorageConfig) LedgerPath() string {
	return filepath.Join(s.BaseDir, "tracking", "ledger.db")
}

// BatchResultsDir resolves where batch-result records are written.
func (s StorageConfig) BatchResultsDir() string {
	return filepath.Join(s.BaseDir, "batch_results")
}

// OriginalsDir resolves where downloaded originals are saved.
func (s StorageConfig) OriginalsDir() string {
	return filepath.Join(s.BaseDir, "original")
}

// ProcessedDir resolves where print-ready renders are saved.
func (s StorageConfig) ProcessedDir() string {
	return filepath.Join(s.BaseDir, "processed")
}

// ScraperConfig wires the upstream actor/job scraping service.
type ScraperConfig struct {
	Provider    string `yaml:"provider"`
	Endpoint    string `yaml:"endpoint"`
	Token       string `yaml:"token"`
	ActorID     string `yaml:"actorId"`
	WaitSeconds int    `yaml:"waitSeconds"`
}

// VisionConfig describes the external image classification service.
type VisionConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentialsFile"`
	MaxLabels       int    `yaml:"maxLabels"`
	MaxObjects      int    `yaml:"maxObjects"`
	CacheTTLMinutes int    `yaml:"cacheTtlMinutes"`
}

// PrintifyConfig defines how to contact the print-on-demand API.
type PrintifyConfig struct {
	Endpoint        string  `yaml:"endpoint"`
	Token           string  `yaml:"token"`
	ShopID          string  `yaml:"shopId"`
	BlueprintID     int     `yaml:"blueprintId"`
	ProviderID      int     `yaml:"providerId"`
	PriceMultiplier float64 `yaml:"priceMultiplier"`
	Publish         bool    `yaml:"publish"`
}

// BatchConfig drives the acquisition controller.
type BatchConfig struct {
	Profiles           []string `yaml:"profiles"`
	Categories         []string `yaml:"categories"`
	TargetCount        int      `yaml:"targetCount"`
	MaxIterations      int      `yaml:"maxIterations"`
	ItemsPerIteration  int      `yaml:"itemsPerIteration"`
	PauseSeconds       int      `yaml:"pauseSeconds"`
	LandscapeOnly      bool     `yaml:"landscapeOnly"`
	MinLandscapeRatio  float64  `yaml:"minLandscapeRatio"`
	NearDuplicateGuard bool     `yaml:"nearDuplicateGuard"`
}

// ScoringConfig holds acceptance thresholds and score-fusion tunables.
type ScoringConfig struct {
	MinQuality  float64 `yaml:"minQuality"`
	MinCategory float64 `yaml:"minCategory"`
	MinOverall  float64 `yaml:"minOverall"`

	// CategoryDivisor normalizes the unbounded category-match sum before it
	// enters the overall score: min(1, best/CategoryDivisor). It is a tunable,
	// not a magic number.
	CategoryDivisor float64 `yaml:"categoryDivisor"`

	// PrintCategoryCap, when positive, caps the category contribution inside
	// the print-suitability blend. Zero leaves it uncapped, letting strong
	// multi-keyword matches boost suitability above nominal.
	PrintCategoryCap float64 `yaml:"printCategoryCap"`
}

// Load reads YAML configuration and applies environment overrides. A config
// file named via the environment must be readable and valid; a run on silent
// defaults is never substituted for a broken file.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(apifyTokenEnv); v != "" {
		c.Scraper.Token = v
	}

	if v := os.Getenv(printifyTokenEnv); v != "" {
		c.Printify.Token = v
	}

	if v := os.Getenv(printifyShopIDEnv); v != "" {
		c.Printify.ShopID = v
	}

	if v := os.Getenv(gcsCredentialsEnv); v != "" {
		c.Storage.CredentialsFile = v
	}

	if v := os.Getenv(gcsBucketEnv); v != "" {
		c.Storage.Bucket = v
	}

	if v := os.Getenv(targetProfilesEnv); v != "" {
		var profiles []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				profiles = append(profiles, p)
			}
		}
		if len(profiles) > 0 {
			c.Batch.Profiles = profiles
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Storage.BaseDir != "" {
		base.Storage.BaseDir = override.Storage.BaseDir
	}
	if override.Storage.Bucket != "" {
		base.Storage.Bucket = override.Storage.Bucket
	}
	if override.Storage.Project != "" {
		base.Storage.Project = override.Storage.Project
	}
	if override.Storage.CredentialsFile != "" {
		base.Storage.CredentialsFile = override.Storage.CredentialsFile
	}

	if override.Scraper.Provider != "" {
		base.Scraper.Provider = override.Scraper.Provider
	}
	if override.Scraper.Endpoint != "" {
		base.Scraper.Endpoint = override.Scraper.Endpoint
	}
	if override.Scraper.Token != "" {
		base.Scraper.Token = override.Scraper.Token
	}
	if override.Scraper.ActorID != "" {
		base.Scraper.ActorID = override.Scraper.ActorID
	}
	if override.Scraper.WaitSeconds > 0 {
		base.Scraper.WaitSeconds = override.Scraper.WaitSeconds
	}

	if override.Vision.CredentialsFile != "" {
		base.Vision.CredentialsFile = override.Vision.CredentialsFile
		base.Vision.Enabled = true
	}
	if override.Vision.MaxLabels > 0 {
		base.Vision.MaxLabels = override.Vision.MaxLabels
	}
	if override.Vision.MaxObjects > 0 {
		base.Vision.MaxObjects = override.Vision.MaxObjects
	}
	if override.Vision.CacheTTLMinutes > 0 {
		base.Vision.CacheTTLMinutes = override.Vision.CacheTTLMinutes
	}

	if override.Printify.Endpoint != "" {
		base.Printify.Endpoint = override.Printify.Endpoint
	}
	if override.Printify.Token != "" {
		base.Printify.Token = override.Printify.Token
	}
	if override.Printify.ShopID != "" {
		base.Printify.ShopID = override.Printify.ShopID
	}
	if override.Printify.BlueprintID > 0 {
		base.Printify.BlueprintID = override.Printify.BlueprintID
	}
	if override.Printify.ProviderID > 0 {
		base.Printify.ProviderID = override.Printify.ProviderID
	}
	if override.Printify.PriceMultiplier > 0 {
		base.Printify.PriceMultiplier = override.Printify.PriceMultiplier
	}
	base.Printify.Publish = base.Printify.Publish || override.Printify.Publish

	if len(override.Batch.Profiles) > 0 {
		base.Batch.Profiles = override.Batch.Profiles
	}
	if len(override.Batch.Categories) > 0 {
		base.Batch.Categories = override.Batch.Categories
	}
	if override.Batch.TargetCount > 0 {
		base.Batch.TargetCount = override.Batch.TargetCount
	}
	if override.Batch.MaxIterations > 0 {
		base.Batch.MaxIterations = override.Batch.MaxIterations
	}
	if override.Batch.ItemsPerIteration > 0 {
		base.Batch.ItemsPerIteration = override.Batch.ItemsPerIteration
	}
	if override.Batch.PauseSeconds > 0 {
		base.Batch.PauseSeconds = override.Batch.PauseSeconds
	}
	base.Batch.LandscapeOnly = base.Batch.LandscapeOnly || override.Batch.LandscapeOnly
	if override.Batch.MinLandscapeRatio > 0 {
		base.Batch.MinLandscapeRatio = override.Batch.MinLandscapeRatio
	}
	base.Batch.NearDuplicateGuard = base.Batch.NearDuplicateGuard || override.Batch.NearDuplicateGuard

	if override.Scoring.MinQuality > 0 {
		base.Scoring.MinQuality = override.Scoring.MinQuality
	}
	if override.Scoring.MinCategory > 0 {
		base.Scoring.MinCategory = override.Scoring.MinCategory
	}
	if override.Scoring.MinOverall > 0 {
		base.Scoring.MinOverall = override.Scoring.MinOverall
	}
	if override.Scoring.CategoryDivisor > 0 {
		base.Scoring.CategoryDivisor = override.Scoring.CategoryDivisor
	}
	if override.Scoring.PrintCategoryCap > 0 {
		base.Scoring.PrintCategoryCap = override.Scoring.PrintCategoryCap
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{BaseDir: "data"},
		Scraper: ScraperConfig{
			Provider:    "apify",
			Endpoint:    "https://api.apify.com",
			ActorID:     "apify~instagram-scraper",
			WaitSeconds: 300,
		},
		Vision: VisionConfig{
			MaxLabels:       20,
			MaxObjects:      10,
			CacheTTLMinutes: 60,
		},
		Printify: PrintifyConfig{
			Endpoint:        "https://api.printify.com/v1",
			PriceMultiplier: 2.0,
		},
		Batch: BatchConfig{
			Categories:        []string{"landscape", "sunset", "water", "nature", "mountains"},
			TargetCount:       10,
			MaxIterations:     10,
			ItemsPerIteration: 50,
			PauseSeconds:      2,
			MinLandscapeRatio: 1.2,
		},
		Scoring: ScoringConfig{
			MinQuality:      0.5,
			MinCategory:     0.5,
			MinOverall:      0.6,
			CategoryDivisor: 2.0,
		},
	}
}
