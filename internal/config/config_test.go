package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// TestDefault pins the defaults so changes to them are deliberate.
func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.General.RefreshRate != 500*time.Millisecond {
		t.Errorf("RefreshRate = %s, want 500ms", cfg.General.RefreshRate)
	}
	if cfg.General.ScanPadding != 150 || cfg.General.CapturePadding != 200 {
		t.Errorf("padding = %d/%d, want 150/200", cfg.General.ScanPadding, cfg.General.CapturePadding)
	}
	if cfg.Identity.OverlapThreshold != 0.7 {
		t.Errorf("OverlapThreshold = %v, want 0.7", cfg.Identity.OverlapThreshold)
	}
	if cfg.Cache.MaxSize != 200 {
		t.Errorf("Cache.MaxSize = %d, want 200", cfg.Cache.MaxSize)
	}
	if cfg.Focus.Debounce != 700*time.Millisecond {
		t.Errorf("Debounce = %s, want 700ms", cfg.Focus.Debounce)
	}
	if cfg.Recovery.Cooldown != time.Minute {
		t.Errorf("Cooldown = %s, want 1m", cfg.Recovery.Cooldown)
	}
	want := map[string]int{"narration": 5, "ocr": 3, "model": 2, "accessibility": 4}
	for name, n := range want {
		if cfg.Recovery.Thresholds[name] != n {
			t.Errorf("threshold %s = %d, want %d", name, cfg.Recovery.Thresholds[name], n)
		}
	}
}

func TestDefault_ThresholdsAreCopied(t *testing.T) {
	t.Parallel()

	a := Default()
	a.Recovery.Thresholds["ocr"] = 99
	if Default().Recovery.Thresholds["ocr"] == 99 {
		t.Fatal("Default shares the thresholds map")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero refresh rate", func(c *Config) { c.General.RefreshRate = 0 }, ErrInvalidRefreshRate},
		{"zero scan padding", func(c *Config) { c.General.ScanPadding = 0 }, ErrInvalidPadding},
		{"overlap above one", func(c *Config) { c.Identity.OverlapThreshold = 1.5 }, ErrInvalidThreshold},
		{"negative confidence", func(c *Config) { c.Vision.UIConfidence = -0.1 }, ErrInvalidConfidence},
		{"zero workers", func(c *Config) { c.Vision.Workers = 0 }, ErrInvalidBatch},
		{"zero cache", func(c *Config) { c.Cache.MaxSize = 0 }, ErrInvalidCacheSize},
		{"negative debounce", func(c *Config) { c.Focus.Debounce = -time.Second }, ErrInvalidDuration},
		{"high water above 100", func(c *Config) { c.Recovery.MemoryHighWater = 120 }, ErrInvalidHighWater},
		{"zero depth", func(c *Config) { c.Accessibility.MaxDepth = 0 }, ErrInvalidDepth},
		{"zero speech rate", func(c *Config) { c.Speech.Rate = 0 }, ErrInvalidSpeechRate},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("zero probe delay is allowed", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Focus.ProbeDelay = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("bad recovery threshold", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Recovery.Thresholds["ocr"] = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero threshold")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
general:
  refresh_rate: 250ms
  scan_padding: 120
vision:
  language: por
recovery:
  thresholds:
    ocr: 6
speech:
  command: "say -r {rate}"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.General.RefreshRate != 250*time.Millisecond {
		t.Errorf("RefreshRate = %s, want 250ms", cfg.General.RefreshRate)
	}
	if cfg.General.ScanPadding != 120 {
		t.Errorf("ScanPadding = %d, want 120", cfg.General.ScanPadding)
	}
	if cfg.General.CapturePadding != 200 {
		t.Errorf("CapturePadding = %d, want default 200", cfg.General.CapturePadding)
	}
	if cfg.Vision.Language != "por" {
		t.Errorf("Language = %q, want por", cfg.Vision.Language)
	}
	if cfg.Recovery.Thresholds["ocr"] != 6 || cfg.Recovery.Thresholds["narration"] != 5 {
		t.Errorf("Thresholds = %v, want ocr overridden and narration kept", cfg.Recovery.Thresholds)
	}
	if cfg.Speech.Command != "say -r {rate}" {
		t.Errorf("Speech.Command = %q", cfg.Speech.Command)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("missing explicit file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Load() = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("general: [unterminated"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse") {
			t.Errorf("Load() = %v, want parse error", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "invalid.yaml")
		if err := os.WriteFile(path, []byte("cache:\n  max_size: -1\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if !errors.Is(err, ErrInvalidCacheSize) {
			t.Errorf("Load() = %v, want ErrInvalidCacheSize", err)
		}
	})
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()

	path := DefaultPath()
	if !strings.HasSuffix(path, filepath.Join(AppName, "config.yaml")) {
		t.Errorf("DefaultPath() = %q", path)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "FOCUS_NARRATOR_SPEECH_RATE=150\nFOCUS_NARRATOR_LANGUAGE=por\nFOCUS_NARRATOR_REFRESH_RATE=1s\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	env, err := ReadEnvFile(envFile)
	if err != nil {
		t.Fatalf("ReadEnvFile() error = %v", err)
	}

	cfg := Default()
	if err := cfg.ApplyEnv(MapLookup(env)); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Speech.Rate != 150 {
		t.Errorf("Speech.Rate = %d, want 150", cfg.Speech.Rate)
	}
	if cfg.Vision.Language != "por" {
		t.Errorf("Language = %q, want por", cfg.Vision.Language)
	}
	if cfg.General.RefreshRate != time.Second {
		t.Errorf("RefreshRate = %s, want 1s", cfg.General.RefreshRate)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	err := cfg.ApplyEnv(MapLookup(map[string]string{
		"FOCUS_NARRATOR_SPEECH_RATE":  "fast",
		"FOCUS_NARRATOR_CACHE_SIZE":   "0",
		"FOCUS_NARRATOR_REFRESH_RATE": "soon",
	}))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "FOCUS_NARRATOR_SPEECH_RATE") || !strings.Contains(err.Error(), "FOCUS_NARRATOR_REFRESH_RATE") {
		t.Errorf("error %q should name both bad variables", err)
	}
}

func TestLoadEnvFiles_SkipsMissing(t *testing.T) {
	t.Parallel()

	if err := LoadEnvFiles(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("LoadEnvFiles() = %v", err)
	}
}
