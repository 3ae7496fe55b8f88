package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "apify", cfg.Scraper.Provider)
	assert.Equal(t, 10, cfg.Batch.TargetCount)
	assert.Equal(t, 2.0, cfg.Scoring.CategoryDivisor)
	assert.Equal(t, 0.0, cfg.Scoring.PrintCategoryCap, "category cap is off unless configured")
	assert.Equal(t, filepath.Join("data", "tracking", "ledger.db"), cfg.Storage.LedgerPath())
}

func TestMergeConfigOverrides(t *testing.T) {
	base := defaultConfig()
	merged := mergeConfig(base, Config{
		Logging: LoggingConfig{Level: "debug"},
		Batch:   BatchConfig{TargetCount: 25, LandscapeOnly: true},
		Scoring: ScoringConfig{MinOverall: 0.7},
	})

	assert.Equal(t, "debug", merged.Logging.Level)
	assert.Equal(t, 25, merged.Batch.TargetCount)
	assert.True(t, merged.Batch.LandscapeOnly)
	assert.Equal(t, 0.7, merged.Scoring.MinOverall)
	// Untouched fields keep their defaults.
	assert.Equal(t, 10, merged.Batch.MaxIterations)
	assert.Equal(t, 0.5, merged.Scoring.MinQuality)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(apifyTokenEnv, "apify-token")
	t.Setenv(printifyShopIDEnv, "shop-42")
	t.Setenv(targetProfilesEnv, "trailhiker, peakchaser ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "apify-token", cfg.Scraper.Token)
	assert.Equal(t, "shop-42", cfg.Printify.ShopID)
	assert.Equal(t, []string{"trailhiker", "peakchaser"}, cfg.Batch.Profiles)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
batch:
  targetCount: 7
  categories: [sunset]
scoring:
  printCategoryCap: 1.0
`), 0o644))
	t.Setenv(configPathEnv, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Batch.TargetCount)
	assert.Equal(t, []string{"sunset"}, cfg.Batch.Categories)
	assert.Equal(t, 1.0, cfg.Scoring.PrintCategoryCap)
}

func TestLoadBrokenFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch: [not a mapping"), 0o644))
	t.Setenv(configPathEnv, path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadMissingNamedFileIsAnError(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
