package observability

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "MELVINPORT_LOG_LEVEL"
	EnvLogTimestamp = "MELVINPORT_LOG_TIMESTAMP"
	EnvLogNoColor   = "MELVINPORT_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var configureOnce sync.Once

// InitLogger configures the global logger for app and returns it.
// Output goes to stderr; stdout is reserved for the primary device
// sink. Repeat calls keep the first configuration.
func InitLogger(app string, profile Profile) zerolog.Logger {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		applyEnvOverrides(&cfg)

		output := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.noColor,
		}
		ctx := zerolog.New(output).Level(cfg.level).With().Str("app", app)
		if cfg.timestamp {
			ctx = ctx.Timestamp()
		}
		log.Logger = ctx.Logger()
	})
	return log.Logger
}

func ConfigureRuntime(app string) zerolog.Logger {
	return InitLogger(app, ProfileRuntime)
}

func ConfigureTests() zerolog.Logger {
	return InitLogger("test", ProfileTest)
}

type logConfig struct {
	level     zerolog.Level
	timestamp bool
	noColor   bool
}

func defaultConfig(profile Profile) logConfig {
	switch profile {
	case ProfileTest:
		return logConfig{level: zerolog.DebugLevel, timestamp: false, noColor: true}
	default:
		return logConfig{level: zerolog.InfoLevel, timestamp: true}
	}
}

func applyEnvOverrides(cfg *logConfig) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.noColor = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
