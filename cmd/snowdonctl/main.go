package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/snowdon/internal/bridge"
	"github.com/danmuck/snowdon/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	configFlag := flag.String("config", "", "path to config.toml (env "+envConfigPath+")")
	flag.Parse()

	observability.InitLogger("snowdon")

	cfg, path, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snowdonctl: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("path", path).Str("id", cfg.ID).Msg("loaded bridge config")

	svc, err := bridge.NewService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snowdonctl: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "snowdonctl: %v\n", err)
		os.Exit(1)
	}
}
