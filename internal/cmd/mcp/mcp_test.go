package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.StorePath != "crucible.db" {
		t.Fatalf("expected default store path, got %q", cfg.StorePath)
	}
}

func TestParseConfigFlagOverrides(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	args := []string{"-store", "/tmp/other.db", "-model", "gpt-4o"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.StorePath != "/tmp/other.db" {
		t.Fatalf("expected flag store path, got %q", cfg.StorePath)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("expected flag model, got %q", cfg.OpenAIModel)
	}
}
