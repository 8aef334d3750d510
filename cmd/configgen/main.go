package main

import (
	"flag"
	"log"

	"github.com/danmuck/snowdon/internal/config"
)

const defaultPath = "cmd/snowdonctl/config.toml"

func main() {
	backend := flag.String("backend", config.BackendSerial, "hardware backend: serial|simulator")
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated config at %s (id=%s backend=%s)", *input, cfg.ID, cfg.Hardware.Backend)
		return
	}

	if err := config.WriteTemplate(*output, *backend, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *backend, *output)
}
