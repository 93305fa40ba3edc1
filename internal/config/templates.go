package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "layout":
		return layoutTemplate, nil
	case "portd":
		return portdTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const layoutTemplate = `[engine]
driver = "loopback"

# Subprocess engine example:
# driver = "exec"
# [engine.options]
# command = "tr"
# args = "a-z A-Z"
# timeout = "30s"

[ingest]
port = 1
chunk_size = 1048576
large_file_threshold = 104857600

[dispatch]
read_capacity = 8192
persist_path = "output.txt"

# Output from input port 1 goes to stdout.
[[routes]]
in = 1
out = 0

# Output from input port 3 is appended to the persist file.
[[routes]]
in = 3
out = 2

[[sinks]]
id = 2
kind = "file"
path = "output.txt"
`

const portdTemplate = `layout = "port_layout.toml"
heartbeat = "5s"

# Leave empty to run without the diagnostics endpoint.
diagnostics_addr = ""
cors_origins = ["http://localhost:3000"]

# A non-empty token puts /status behind bearer auth.
diag_token = ""
`
