package main

import (
	"fmt"
	"os"
	"strconv"

	"clinic-appointment-engine/cmd/bootstrap"
	"clinic-appointment-engine/config"
	"clinic-appointment-engine/internal/infrastructure/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := bootstrap.NewLogger(cfg.App.LogLevel)

	// migrate force <version>
	if len(os.Args) >= 3 && os.Args[1] == "force" {
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("invalid version: %v", err)
		}
		if err := database.Force(cfg.DB, version); err != nil {
			log.Fatalf("%v", err)
		}
		log.Infof("forced version to %d", version)
		return
	}

	if err := database.Migrate(cfg.DB, log); err != nil {
		log.Fatalf("%v", err)
	}
}
