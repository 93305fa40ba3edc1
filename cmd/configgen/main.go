package main

import (
	"flag"
	"log"

	"github.com/Jak3Gil/melvinport/internal/config"
)

func main() {
	kind := flag.String("kind", "layout", "config kind: layout|portd")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		if *kind != "layout" {
			log.Fatalf("validation supports layout configs only, got kind: %s", *kind)
		}
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}
		if _, err := config.LoadLayout(path); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "layout":
		return "cmd/portd/port_layout.toml"
	case "portd":
		return "cmd/portd/config.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}
