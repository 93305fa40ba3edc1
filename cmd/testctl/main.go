// testctl runs or inventories the module's test suite with readable,
// per-package output. Run mode streams go test -json and stays quiet
// about passing tests unless -v is set; failing tests replay their
// buffered output. List mode prints the test inventory grouped by
// package area.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

type options struct {
	mode    string
	pkg     string
	run     string
	verbose bool
}

func main() {
	opts := parseFlags()
	switch opts.mode {
	case "run":
		code, err := runSuite(opts)
		if err != nil {
			fatalf("%v", err)
		}
		os.Exit(code)
	case "list":
		if err := listInventory(opts); err != nil {
			fatalf("%v", err)
		}
	default:
		fatalf("unknown mode %q (supported: run, list)", opts.mode)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.mode, "mode", "run", "mode: run | list")
	flag.StringVar(&opts.pkg, "pkg", "./...", "package pattern(s), comma or space separated")
	flag.StringVar(&opts.run, "run", "", "go test -run regex (run mode)")
	flag.BoolVar(&opts.verbose, "v", false, "print every test, not just failures")
	flag.Parse()
	return opts
}

// testEvent is the go test -json event shape.
type testEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

// reporter folds a -json event stream into console lines and totals.
// Output lines for still-running tests are buffered and replayed only
// when the test fails.
type reporter struct {
	module  string
	verbose bool

	packages     int
	packagesFail int
	run          int
	pass         int
	fail         int
	skip         int

	current  string
	failures []string
	tails    map[string][]string
}

func runSuite(opts options) (int, error) {
	module, err := modulePath()
	if err != nil {
		return 1, err
	}

	args := []string{"test", "-json", "-p", "1"}
	if strings.TrimSpace(opts.run) != "" {
		args = append(args, "-run", opts.run)
	}
	args = append(args, splitPatterns(opts.pkg)...)

	cmd := exec.Command("go", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 1, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 1, err
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return 1, err
	}

	rep := &reporter{
		module:  module,
		verbose: opts.verbose,
		tails:   make(map[string][]string),
	}
	streamErr := make(chan error, 2)
	go func() { streamErr <- rep.consume(stdout) }()
	go func() { streamErr <- relayStderr(stderr) }()

	waitErr := cmd.Wait()
	for i := 0; i < 2; i++ {
		if err := <-streamErr; err != nil {
			return 1, err
		}
	}

	code := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return 1, waitErr
		}
		code = exitErr.ExitCode()
	}

	rep.summarize(time.Since(start))
	return code, nil
}

func (r *reporter) consume(in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev testEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			fmt.Printf("?? %s\n", line)
			continue
		}
		r.apply(ev)
	}
	return sc.Err()
}

func (r *reporter) apply(ev testEvent) {
	rel := relPath(r.module, ev.Package)
	if ev.Package != "" && rel != r.current {
		r.current = rel
		if r.verbose {
			fmt.Printf("\n%s\n", rel)
		}
	}

	key := ev.Package + "." + ev.Test
	switch ev.Action {
	case "run":
		if ev.Test != "" {
			r.run++
		}
	case "output":
		if ev.Test != "" && !noisyLine(strings.TrimSpace(ev.Output)) {
			r.tails[key] = append(r.tails[key], strings.TrimRight(ev.Output, "\n"))
		}
	case "pass":
		if ev.Test == "" {
			r.packages++
			fmt.Printf("ok    %-40s %6.2fs\n", rel, ev.Elapsed)
			return
		}
		r.pass++
		delete(r.tails, key)
		if r.verbose {
			fmt.Printf("  pass  %s (%.2fs)\n", ev.Test, ev.Elapsed)
		}
	case "fail":
		if ev.Test == "" {
			r.packages++
			r.packagesFail++
			fmt.Printf("FAIL  %-40s %6.2fs\n", rel, ev.Elapsed)
			return
		}
		r.fail++
		r.failures = append(r.failures, rel+": "+ev.Test)
		fmt.Printf("  fail  %s (%.2fs)\n", ev.Test, ev.Elapsed)
		for _, out := range r.tails[key] {
			fmt.Printf("        %s\n", strings.TrimSpace(out))
		}
		delete(r.tails, key)
	case "skip":
		if ev.Test == "" {
			r.packages++
			fmt.Printf("skip  %-40s\n", rel)
			return
		}
		r.skip++
		delete(r.tails, key)
		if r.verbose {
			fmt.Printf("  skip  %s\n", ev.Test)
		}
	}
}

func (r *reporter) summarize(elapsed time.Duration) {
	fmt.Printf("\nsummary: %d packages", r.packages)
	if r.packagesFail > 0 {
		fmt.Printf(" (%d failed)", r.packagesFail)
	}
	fmt.Printf(", %d tests: %d passed, %d failed, %d skipped in %s\n",
		r.run, r.pass, r.fail, r.skip, elapsed.Round(time.Millisecond))
	if len(r.failures) > 0 {
		fmt.Println("failed:")
		for _, name := range r.failures {
			fmt.Printf("  %s\n", name)
		}
	}
}

// noisyLine reports go test chatter that the per-test tail should not
// repeat.
func noisyLine(line string) bool {
	for _, p := range []string{"=== RUN", "=== PAUSE", "=== CONT", "=== NAME", "--- PASS", "--- FAIL", "--- SKIP"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return line == "PASS" || line == "FAIL"
}

func relayStderr(in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 16*1024), 2*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fmt.Fprintf(os.Stderr, "go> %s\n", line)
	}
	return sc.Err()
}

func listInventory(opts options) error {
	module, err := modulePath()
	if err != nil {
		return err
	}
	pkgs, err := matchPackages(splitPatterns(opts.pkg))
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		fmt.Println("no packages matched")
		return nil
	}

	type entry struct {
		area  string
		rel   string
		tests []string
	}
	entries := make([]entry, 0, len(pkgs))
	total := 0
	for _, pkg := range pkgs {
		tests, err := packageTests(pkg)
		if err != nil {
			return err
		}
		rel := relPath(module, pkg)
		entries = append(entries, entry{area: area(rel), rel: rel, tests: tests})
		total += len(tests)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].area != entries[j].area {
			return entries[i].area < entries[j].area
		}
		return entries[i].rel < entries[j].rel
	})

	lastArea := ""
	for _, e := range entries {
		if e.area != lastArea {
			lastArea = e.area
			fmt.Printf("%s\n", e.area)
		}
		if len(e.tests) == 0 {
			fmt.Printf("  %s (no tests)\n", e.rel)
			continue
		}
		fmt.Printf("  %s (%d tests)\n", e.rel, len(e.tests))
		for _, name := range e.tests {
			fmt.Printf("    %s\n", name)
		}
	}
	fmt.Printf("\n%d packages, %d tests\n", len(entries), total)
	return nil
}

func splitPatterns(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{"./..."}
	}
	return out
}

func modulePath() (string, error) {
	out, err := exec.Command("go", "list", "-m", "-f", "{{.Path}}").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func matchPackages(patterns []string) ([]string, error) {
	args := append([]string{"list"}, patterns...)
	out, err := exec.Command("go", args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("go list failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	pkgs := strings.Fields(string(out))
	sort.Strings(pkgs)
	return pkgs, nil
}

func packageTests(pkg string) ([]string, error) {
	out, err := exec.Command("go", "test", pkg, "-list", ".").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("go test -list failed for %s: %w: %s", pkg, err, strings.TrimSpace(string(out)))
	}
	tests := make([]string, 0, 16)
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); isTestName(line) {
			tests = append(tests, line)
		}
	}
	sort.Strings(tests)
	return tests, nil
}

func isTestName(line string) bool {
	for _, p := range []string{"Test", "Benchmark", "Fuzz", "Example"} {
		if strings.HasPrefix(line, p) && len(line) > len(p) {
			return true
		}
	}
	return false
}

func relPath(module, importPath string) string {
	if importPath == module {
		return "."
	}
	return strings.TrimPrefix(importPath, module+"/")
}

// area buckets a package path for the inventory listing: cmd, each
// internal subtree, or the path head.
func area(rel string) string {
	if rel == "." {
		return "root"
	}
	parts := strings.SplitN(rel, "/", 3)
	switch {
	case parts[0] == "cmd":
		return "cmd"
	case parts[0] == "internal" && len(parts) > 1:
		return "internal/" + parts[1]
	default:
		return parts[0]
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "testctl: "+format+"\n", args...)
	os.Exit(1)
}
