package main

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is the pipeline configuration, read from an optional config
// file with MPMODEL_-prefixed environment overrides.
type Config struct {
	SamplesPath    string
	FacilitiesPath string
	TractPopPath   string
	LandUsePath    string
	ZipPopPath     string
	ZipPopSheet    string
	MetadataPath   string

	CachePath  string
	ResultsDir string
	DBPath     string

	Seed     int
	TestSize float64
	Strata   int
	Folds    int
	Repeats  int

	LogLevel string

	// GeocodeAPIKey comes only from configuration. A missing key just
	// disables geocoding; it is never embedded in source.
	GeocodeAPIKey string
}

func loadConfig(configFile string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix("mpmodel")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("data.samples", "data/samples.csv")
	v.SetDefault("data.facilities", "data/facilities.csv")
	v.SetDefault("data.tract_population", "data/tract_population.csv")
	v.SetDefault("data.land_use", "data/land_use.csv")
	v.SetDefault("data.zip_population", "")
	v.SetDefault("data.zip_population_sheet", "Sheet1")
	v.SetDefault("data.metadata", "")
	v.SetDefault("data.cache", "")
	v.SetDefault("results.dir", "results")
	v.SetDefault("results.db", "results/runs.db")
	v.SetDefault("model.seed", 42)
	v.SetDefault("model.test_size", 0.25)
	v.SetDefault("model.strata", 4)
	v.SetDefault("model.folds", 10)
	v.SetDefault("model.repeats", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("geocode.api_key", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	return Config{
		SamplesPath:    v.GetString("data.samples"),
		FacilitiesPath: v.GetString("data.facilities"),
		TractPopPath:   v.GetString("data.tract_population"),
		LandUsePath:    v.GetString("data.land_use"),
		ZipPopPath:     v.GetString("data.zip_population"),
		ZipPopSheet:    v.GetString("data.zip_population_sheet"),
		MetadataPath:   v.GetString("data.metadata"),
		CachePath:      v.GetString("data.cache"),
		ResultsDir:     v.GetString("results.dir"),
		DBPath:         v.GetString("results.db"),
		Seed:           v.GetInt("model.seed"),
		TestSize:       v.GetFloat64("model.test_size"),
		Strata:         v.GetInt("model.strata"),
		Folds:          v.GetInt("model.folds"),
		Repeats:        v.GetInt("model.repeats"),
		LogLevel:       v.GetString("log.level"),
		GeocodeAPIKey:  v.GetString("geocode.api_key"),
	}, nil
}
