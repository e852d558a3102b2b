package main

import (
	"os"

	"github.com/zintix-labs/gachalab/sdk/perf"
	"github.com/zintix-labs/gachalab/server/logger"
)

// makefile runner
//
//	go run ./cmd/run -s soft_pity -workers 4 -o build/soft_pity.json
func main() {
	log := logger.NewDefaultLogger(logger.ModeDev)
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Error("invalid flags", "err", err)
		os.Exit(2)
	}
	path, err := perf.Run(cfg.pprofmode, "", func() error { return execute(cfg, os.Stdout) })
	if err != nil {
		log.Error("campaign failed", "err", err)
		os.Exit(1)
	}
	if path != "" {
		log.Info("profile written", "path", path)
	}
}
