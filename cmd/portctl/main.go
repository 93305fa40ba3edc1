package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Jak3Gil/melvinport/internal/config"
	"github.com/Jak3Gil/melvinport/internal/engine"
	"github.com/Jak3Gil/melvinport/internal/observability"
	"github.com/Jak3Gil/melvinport/internal/port"
	"github.com/Jak3Gil/melvinport/internal/route"
)

type options struct {
	layoutPath string
	driver     string
	port       int
	expectPath string
	chunkSize  int
	show       bool
}

func main() {
	opts := parseFlags()
	observability.ConfigureRuntime("portctl")
	if err := run(opts, flag.Args()); err != nil {
		fatalf("%v", err)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.layoutPath, "layout", "", "path to port layout TOML")
	flag.StringVar(&opts.driver, "engine", "", "engine driver override")
	flag.IntVar(&opts.port, "port", -1, "input port id (0-255)")
	flag.StringVar(&opts.expectPath, "expect", "", "path to expected output for feedback scoring")
	flag.IntVar(&opts.chunkSize, "chunk-size", 0, "ingestion window size in bytes")
	flag.BoolVar(&opts.show, "show", false, "print pending engine output before dispatch")
	flag.Parse()
	return opts
}

// run ingests each source through the engine and settles the output
// side once per source. With no sources, stdin is the source.
func run(opts options, sources []string) error {
	layout, err := resolveLayout(opts)
	if err != nil {
		return err
	}

	eng, err := engine.Open(layout.Engine.Driver, layout.Engine.Options)
	if err != nil {
		return err
	}

	table := new(route.Table)
	entries := config.RouteEntries(layout.Routes)
	if kept := table.Configure(entries); kept < len(entries) {
		log.Warn().Int("configured", len(entries)).Int("kept", kept).Msg("route table truncated")
	}
	sinks, err := config.SinkRegistry(layout)
	if err != nil {
		return err
	}

	ing := port.NewIngestor(eng, port.IngestOptions{
		ChunkSize:          layout.Ingest.ChunkSize,
		LargeFileThreshold: layout.Ingest.LargeFileThreshold,
	})
	d := port.NewDispatcher(eng, table, sinks, layout.Dispatch.ReadCapacity)

	expected, err := loadExpectation(opts.expectPath)
	if err != nil {
		return err
	}

	in := uint8(layout.Ingest.Port)
	capacity := layout.Dispatch.ReadCapacity

	if len(sources) == 0 {
		stats, err := ing.IngestReader(in, os.Stdin, 0)
		if err != nil {
			return err
		}
		fmt.Printf("stdin: %d chunks, %d bytes\n", stats.Chunks, stats.Bytes)
		return settleOutput(eng, d, opts.show, capacity, expected, "stdin")
	}

	for _, src := range sources {
		stats, err := ing.IngestFile(in, src)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d chunks, %d bytes\n", src, stats.Chunks, stats.Bytes)
		if err := settleOutput(eng, d, opts.show, capacity, expected, src); err != nil {
			return err
		}
	}
	return nil
}

func resolveLayout(opts options) (config.Layout, error) {
	layout := config.DefaultLayout()
	if opts.layoutPath != "" {
		loaded, err := config.LoadLayout(opts.layoutPath)
		if err != nil {
			return config.Layout{}, err
		}
		layout = loaded
	}
	if strings.TrimSpace(opts.driver) != "" {
		layout.Engine.Driver = strings.TrimSpace(opts.driver)
	}
	if opts.port >= 0 {
		layout.Ingest.Port = opts.port
	}
	if opts.chunkSize > 0 {
		layout.Ingest.ChunkSize = opts.chunkSize
	}
	if err := config.ValidateLayout(layout); err != nil {
		return config.Layout{}, err
	}
	return layout, nil
}

// loadExpectation distinguishes no expectation (nil) from an expected
// empty output (non-nil, zero length).
func loadExpectation(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expectation: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func settleOutput(eng engine.Engine, d *port.Dispatcher, show bool, capacity int, expected []byte, label string) error {
	if show && eng.OutputSize() > 0 {
		renderOutput(os.Stdout, eng.ReadOutput(capacity))
	}

	if expected != nil {
		res, err := d.ProcessWithFeedback(expected)
		if err != nil {
			return err
		}
		fmt.Printf("%s: score %.3f\n", label, res.Score)
		printDelivery(label, res.DispatchResult)
		return nil
	}

	res, err := d.Dispatch()
	if err != nil {
		return err
	}
	printDelivery(label, res)
	return nil
}

func printDelivery(label string, res port.DispatchResult) {
	switch {
	case res.Discarded:
		fmt.Printf("%s: output discarded (no route)\n", label)
	case res.Delivered > 0:
		fmt.Printf("%s: %d bytes to %s\n", label, res.Delivered, res.Sink)
	}
}

// renderOutput prints printable bytes raw and everything else as a
// hex escape, followed by the true byte count.
func renderOutput(w io.Writer, data []byte) {
	var b strings.Builder
	for _, c := range data {
		if c >= 32 && c < 127 {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\x%02x", c)
		}
	}
	fmt.Fprintf(w, "Output: \"%s\" (%d bytes)\n", b.String(), len(data))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "portctl: "+format+"\n", args...)
	os.Exit(1)
}
