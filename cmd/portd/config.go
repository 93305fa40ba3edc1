package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Jak3Gil/melvinport/internal/config"
	"github.com/Jak3Gil/melvinport/internal/port"
)

type fileConfig struct {
	Layout          string   `toml:"layout"`
	Heartbeat       string   `toml:"heartbeat"`
	DiagnosticsAddr string   `toml:"diagnostics_addr"`
	DiagToken       string   `toml:"diag_token"`
	CorsOrigins     []string `toml:"cors_origins"`
}

func loadServiceConfig(path string) (port.ServiceConfig, error) {
	cfg := port.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return port.ServiceConfig{}, fmt.Errorf("load portd config: %w", err)
	}

	if meta.IsDefined("layout") {
		layoutPath := strings.TrimSpace(raw.Layout)
		if layoutPath != "" {
			layout, err := config.LoadLayout(layoutPath)
			if err != nil {
				return port.ServiceConfig{}, err
			}
			cfg.Layout = layout
		}
	}

	if meta.IsDefined("heartbeat") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Heartbeat))
		if err != nil {
			return port.ServiceConfig{}, fmt.Errorf("parse heartbeat: %w", err)
		}
		cfg.Heartbeat = d
	}

	if meta.IsDefined("diagnostics_addr") {
		cfg.DiagnosticsAddr = strings.TrimSpace(raw.DiagnosticsAddr)
	}

	if meta.IsDefined("diag_token") {
		cfg.DiagToken = strings.TrimSpace(raw.DiagToken)
	}

	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOriginList(raw.CorsOrigins)
	}

	return cfg, nil
}

func normalizeOriginList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
