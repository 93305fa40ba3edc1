package main

import (
	"reflect"
	"testing"
)

func TestSplitPatterns(t *testing.T) {
	got := splitPatterns(" ./internal/..., ./cmd/portd \n")
	want := []string{"./internal/...", "./cmd/portd"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("patterns: got %v want %v", got, want)
	}
	if got := splitPatterns("  ,  "); !reflect.DeepEqual(got, []string{"./..."}) {
		t.Fatalf("blank patterns: got %v", got)
	}
}

func TestArea(t *testing.T) {
	cases := []struct {
		rel  string
		want string
	}{
		{".", "root"},
		{"cmd/portd", "cmd"},
		{"internal/port", "internal/port"},
		{"internal/engine/enginetest", "internal/engine"},
		{"internal/testutil/testlog", "internal/testutil"},
		{"github.com/other/mod/leftover", "github.com"},
	}
	for _, tc := range cases {
		if got := area(tc.rel); got != tc.want {
			t.Fatalf("area(%q): got %q want %q", tc.rel, got, tc.want)
		}
	}
}

func TestNoisyLine(t *testing.T) {
	if !noisyLine("=== RUN   TestSomething") {
		t.Fatalf("run marker not filtered")
	}
	if !noisyLine("--- FAIL: TestSomething (0.01s)") {
		t.Fatalf("fail marker not filtered")
	}
	if noisyLine("    table.go:42: got 3 want 4") {
		t.Fatalf("assertion output filtered")
	}
}

func TestIsTestName(t *testing.T) {
	if !isTestName("TestDispatchDeliversRoutedOutput") {
		t.Fatalf("test name rejected")
	}
	if isTestName("ok") || isTestName("Test") {
		t.Fatalf("non-name accepted")
	}
}
