package texpect

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestConfig_ApplyOptions(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyOptions(`+norm-ws -tags +input input-prefix-range=3:9 min-rcount=2
		recover-timeout=0.5 match-timeout=3s rm="\r" rm=~ +enhance-diff`)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		NormWS:         true,
		Input:          true,
		MinRCount:      2,
		RecoverTimeout: 500 * time.Millisecond,
		MatchTimeout:   3 * time.Second,
		InputPrefixMin: 3,
		InputPrefixMax: 9,
		Remove:         []string{"\r", "~"},
		EnhanceDiff:    true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_ApplyOptions_errors(t *testing.T) {
	for _, opts := range []string{
		"+nosuch",
		"nosuch",
		"min-rcount",
		"match-timeout=-",
		"min-rcount=x",
		"input-prefix-range=3",
		"recover-timeout=soon",
		"tags=maybe",
	} {
		cfg := DefaultConfig()
		if err := cfg.ApplyOptions(opts); err == nil {
			t.Errorf("no error for '%s'", opts)
		}
	}
}

func TestConfig_ApplyOptions_bare(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ApplyOptions("norm-ws enhance-diff -tags"); err != nil {
		t.Fatal(err)
	}
	if !cfg.NormWS || !cfg.EnhanceDiff || cfg.Tags {
		t.Errorf("wrong flags: norm-ws=%t enhance-diff=%t tags=%t",
			cfg.NormWS,
			cfg.EnhanceDiff,
			cfg.Tags,
		)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	cfg.InputPrefixMin, cfg.InputPrefixMax = 8, 4
	cfg.MinRCount = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid config validates")
	}
	if msg := err.Error(); !strings.Contains(msg, "min-rcount") || !strings.Contains(msg, "input-prefix-range") {
		t.Errorf("incomplete validation error: %s", msg)
	}
	if _, err := NewParser(cfg).Build("x"); err == nil {
		t.Error("build with invalid config")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		cfg := DefaultConfig()
		if err := LoadConfigFile(&cfg, filepath.Join("testdata", "config.yaml")); err != nil {
			t.Fatal(err)
		}
		want := DefaultConfig()
		want.NormWS, want.Tags = true, false
		want.MinRCount = 3
		want.RecoverTimeout = 1500 * time.Millisecond
		want.InputPrefixMin, want.InputPrefixMax = 4, 8
		want.Remove = []string{"\r"}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("toml", func(t *testing.T) {
		cfg := DefaultConfig()
		if err := LoadConfigFile(&cfg, filepath.Join("testdata", "config.toml")); err != nil {
			t.Fatal(err)
		}
		want := DefaultConfig()
		want.Input, want.AdvCaptures = true, true
		want.RecoverTimeout = 250 * time.Millisecond
		want.InputPrefixMin, want.InputPrefixMax = 2, 10
		want.Remove = []string{"~"}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("json", func(t *testing.T) {
		cfg := DefaultConfig()
		if err := LoadConfigFile(&cfg, filepath.Join("testdata", "config.json")); err != nil {
			t.Fatal(err)
		}
		want := DefaultConfig()
		want.EnhanceDiff = true
		want.MinRCount = 12
		want.RecoverTimeout = 0
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("unknown type", func(t *testing.T) {
		cfg := DefaultConfig()
		if err := LoadConfigFile(&cfg, filepath.Join("testdata", "config.ini")); err == nil {
			t.Error("no error for unsupported file")
		}
	})
}
