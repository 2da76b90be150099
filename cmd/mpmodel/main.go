// Command mpmodel runs the microplastics concentration modeling
// pipeline: it assembles the sample frame, tunes each model family by
// repeated k-fold cross-validation, evaluates the winner on the held-out
// test split, and writes plots and archived results.
package main

import (
	"flag"
	"os"

	"github.com/clearwaterlab/microplastics/pkg/log"
)

func main() {
	configFile := flag.String("config", "", "path to config file (optional; MPMODEL_ env vars override)")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.GetLogger().Error("loading configuration", log.ErrAttr(err))
		os.Exit(1)
	}

	log.SetupLogger(cfg.LogLevel)

	if err := runPipeline(cfg); err != nil {
		log.GetLogger().Error("pipeline failed", log.ErrAttr(err))
		os.Exit(1)
	}
}
