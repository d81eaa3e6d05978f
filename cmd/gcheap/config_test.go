package main

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/wippyai/gcheap/heap"
	"github.com/wippyai/gcheap/hostmod"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gcheap.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "max_blocks: 2\ninitial_capacity: 8\nlog_level: warn\nmodule_name: custom\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.MaxBlocks != 2 || cfg.InitialCapacity != 8 || cfg.LogLevel != "warn" || cfg.ModuleName != "custom" {
		t.Fatalf("cfg = %+v", cfg)
	}

	h := heap.New(cfg.heapOptions())
	h.NewNumber(1)
	h.NewNumber(2)
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("max_blocks must bound allocation")
			}
		}()
		h.NewNumber(3)
	}()

	if got := hostmod.New(h, cfg.hostOptions()).Name(); got != "custom" {
		t.Fatalf("module name = %q", got)
	}

	l, err := cfg.logger(false)
	if err != nil || l == nil {
		t.Fatalf("logger = %v, %v", l, err)
	}
	if l.Core().Enabled(zap.InfoLevel) || !l.Core().Enabled(zap.WarnLevel) {
		t.Fatal("log_level warn not applied")
	}
	if l, _ := cfg.logger(true); !l.Core().Enabled(zap.DebugLevel) {
		t.Fatal("-v must enable debug")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if cfg, err := loadConfig(""); err != nil || cfg != (fileConfig{}) {
		t.Fatalf("empty path = %+v, %v", cfg, err)
	}
	if l, err := (fileConfig{}).logger(false); err != nil || l != nil {
		t.Fatal("logging must stay off without level or -v")
	}

	for name, body := range map[string]string{
		"unknown field": "max_block: 1\n",
		"negative":      "max_blocks: -1\n",
		"bad yaml":      "max_blocks: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := loadConfig(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := (fileConfig{LogLevel: "loud"}).logger(false); err == nil {
		t.Fatal("expected invalid level error")
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}
