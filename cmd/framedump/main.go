package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Jak3Gil/melvinport/internal/chunk"
	"github.com/Jak3Gil/melvinport/internal/frame"
)

type options struct {
	mode      string
	input     string
	port      int
	chunkSize int
	preview   int
	maxBytes  uint64
}

func main() {
	opts := parseFlags()
	switch opts.mode {
	case "dump":
		if err := runDump(opts); err != nil {
			fatalf("%v", err)
		}
	case "wrap":
		if err := runWrap(opts); err != nil {
			fatalf("%v", err)
		}
	default:
		fatalf("unknown mode %q (supported: dump, wrap)", opts.mode)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.mode, "mode", "dump", "mode: dump | wrap")
	flag.StringVar(&opts.input, "input", "", "input path (default stdin)")
	flag.IntVar(&opts.port, "port", 1, "origin port id for wrap mode (0-255)")
	flag.IntVar(&opts.chunkSize, "chunk-size", 0, "payload window size for wrap mode")
	flag.IntVar(&opts.preview, "preview", 32, "payload bytes shown per frame in dump mode")
	flag.Uint64Var(&opts.maxBytes, "max-payload", 0, "payload size limit override in bytes")
	flag.Parse()
	return opts
}

// runDump decodes a frame stream and prints one line per frame.
func runDump(opts options) error {
	src, done, err := openInput(opts.input)
	if err != nil {
		return err
	}
	defer done()

	limits := frame.DefaultLimits()
	if opts.maxBytes > 0 {
		limits.MaxPayloadBytes = opts.maxBytes
	}

	br := bufio.NewReader(src)
	count := 0
	var total uint64
	for {
		f, err := frame.ReadFrame(br, limits)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", count+1, err)
		}
		count++
		total += uint64(len(f.Payload))
		ts := time.UnixMicro(int64(f.Timestamp)).UTC().Format(time.RFC3339Nano)
		fmt.Printf("frame %d: port=%d ts=%s len=%d payload=%s\n",
			count, f.PortID, ts, len(f.Payload), previewPayload(f.Payload, opts.preview))
	}
	fmt.Printf("%d frames, %d payload bytes\n", count, total)
	return nil
}

// runWrap windows a raw byte stream into framed records on stdout.
func runWrap(opts options) error {
	if opts.port < 0 || opts.port > 255 {
		return fmt.Errorf("port %d outside 0-255", opts.port)
	}
	src, done, err := openInput(opts.input)
	if err != nil {
		return err
	}
	defer done()

	r := chunk.NewReader(src, chunk.Options{ChunkSize: opts.chunkSize})
	out := bufio.NewWriter(os.Stdout)
	limits := frame.DefaultLimits()
	count := 0
	for {
		win, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		f := frame.Frame{PortID: uint8(opts.port), Timestamp: frame.NowTimestamp(), Payload: win}
		if err := frame.WriteFrame(out, f, limits); err != nil {
			return err
		}
		count++
	}
	if err := out.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d frames written\n", count)
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func previewPayload(payload []byte, n int) string {
	if n <= 0 || len(payload) <= n {
		return strconv.Quote(string(payload))
	}
	return fmt.Sprintf("%s +%d more", strconv.Quote(string(payload[:n])), len(payload)-n)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "framedump: "+format+"\n", args...)
	os.Exit(1)
}
