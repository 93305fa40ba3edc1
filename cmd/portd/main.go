package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Jak3Gil/melvinport/internal/observability"
	"github.com/Jak3Gil/melvinport/internal/port"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to portd TOML config")
	flag.Parse()

	observability.ConfigureRuntime("portd")

	cfg := port.DefaultServiceConfig()
	if configPath != "" {
		loaded, err := loadServiceConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "portd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	svc := port.NewServiceWithConfig(cfg)
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "portd: %v\n", err)
		os.Exit(1)
	}
}
