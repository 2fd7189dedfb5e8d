package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"

	"github.com/ironsheep/focus-narrator/internal/cache"
	"github.com/ironsheep/focus-narrator/internal/focus"
	"github.com/ironsheep/focus-narrator/internal/identity"
	"github.com/ironsheep/focus-narrator/internal/narration"
	"github.com/ironsheep/focus-narrator/internal/perception"
	"github.com/ironsheep/focus-narrator/internal/recovery"
)

// AppName names the XDG directories.
const AppName = "focus-narrator"

// Defaults not owned by another package.
const (
	DefaultRefreshRate     = 500 * time.Millisecond
	DefaultHealthInterval  = 300 * time.Second
	DefaultMinArea         = 100
	DefaultBatchCap        = 8
	DefaultOCRWorkers      = 4
	DefaultOCRPadding      = 5
	DefaultUIConfidence    = 0.15
	DefaultProseConfidence = 0.3
	DefaultLanguage        = "eng"
	DefaultSpeechCommand   = "espeak -s {rate}"
)

// Config is the complete runtime configuration.
type Config struct {
	General       General       `yaml:"general"`
	Vision        Vision        `yaml:"vision"`
	Identity      Identity      `yaml:"identity"`
	Cache         Cache         `yaml:"cache"`
	Focus         Focus         `yaml:"focus"`
	Recovery      Recovery      `yaml:"recovery"`
	Accessibility Accessibility `yaml:"accessibility"`
	Speech        Speech        `yaml:"speech"`
}

// General holds the polling loop settings.
type General struct {
	RefreshRate      time.Duration `yaml:"refresh_rate"`
	ScanPadding      int           `yaml:"scan_padding"`
	CapturePadding   int           `yaml:"capture_padding"`
	PointerThreshold float64       `yaml:"pointer_threshold"`
	// AppContext forces the application profile instead of deriving it from
	// the window title.
	AppContext string `yaml:"app_context"`
	// ScreenFile is the screenshot the file capturer reads.
	ScreenFile string `yaml:"screen_file"`
	// TreeFile is the accessibility snapshot the structured source reads.
	TreeFile string `yaml:"tree_file"`
}

// Vision holds the visual detection and OCR settings.
type Vision struct {
	MinArea         int     `yaml:"min_area"`
	BatchCap        int     `yaml:"batch_cap"`
	Workers         int     `yaml:"workers"`
	OCRPadding      int     `yaml:"ocr_padding"`
	UIConfidence    float64 `yaml:"ui_confidence"`
	ProseConfidence float64 `yaml:"prose_confidence"`
	Language        string  `yaml:"language"`
	TessdataPrefix  string  `yaml:"tessdata_prefix"`
}

// Identity holds the matcher settings.
type Identity struct {
	OverlapThreshold float64 `yaml:"overlap_threshold"`
}

// Cache holds the context cache settings.
type Cache struct {
	MaxSize int `yaml:"max_size"`
}

// Focus holds the controller timing settings.
type Focus struct {
	Debounce    time.Duration `yaml:"debounce"`
	ProbeDelay  time.Duration `yaml:"probe_delay"`
	HistorySize int           `yaml:"history_size"`
	QueueSize   int           `yaml:"queue_size"`
}

// Recovery holds the supervisor settings.
type Recovery struct {
	Cooldown        time.Duration  `yaml:"cooldown"`
	HealthInterval  time.Duration  `yaml:"health_interval"`
	MemoryHighWater float64        `yaml:"memory_high_water"`
	Thresholds      map[string]int `yaml:"thresholds"`
}

// Accessibility holds the structured source settings.
type Accessibility struct {
	MaxDepth int `yaml:"max_depth"`
	MinSize  int `yaml:"min_size"`
}

// Speech holds the narration settings. An empty Command logs utterances
// instead of speaking them.
type Speech struct {
	Command string `yaml:"command"`
	Rate    int    `yaml:"rate"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	thresholds := make(map[string]int, len(recovery.DefaultThresholds))
	for k, v := range recovery.DefaultThresholds {
		thresholds[k] = v
	}
	return &Config{
		General: General{
			RefreshRate:      DefaultRefreshRate,
			ScanPadding:      focus.DefaultScanPadding,
			CapturePadding:   focus.DefaultCapturePadding,
			PointerThreshold: focus.DefaultPointerThreshold,
		},
		Vision: Vision{
			MinArea:         DefaultMinArea,
			BatchCap:        DefaultBatchCap,
			Workers:         DefaultOCRWorkers,
			OCRPadding:      DefaultOCRPadding,
			UIConfidence:    DefaultUIConfidence,
			ProseConfidence: DefaultProseConfidence,
			Language:        DefaultLanguage,
		},
		Identity: Identity{OverlapThreshold: identity.DefaultThreshold},
		Cache:    Cache{MaxSize: cache.DefaultMaxSize},
		Focus: Focus{
			Debounce:    focus.DefaultDebounce,
			ProbeDelay:  focus.DefaultProbeDelay,
			HistorySize: focus.DefaultHistorySize,
			QueueSize:   focus.DefaultQueueSize,
		},
		Recovery: Recovery{
			Cooldown:        recovery.DefaultCooldown,
			HealthInterval:  DefaultHealthInterval,
			MemoryHighWater: recovery.DefaultHighWater,
			Thresholds:      thresholds,
		},
		Accessibility: Accessibility{
			MaxDepth: perception.DefaultMaxDepth,
			MinSize:  perception.DefaultMinSize,
		},
		Speech: Speech{
			Command: DefaultSpeechCommand,
			Rate:    narration.DefaultRate,
		},
	}
}

// Validate returns the first invalid setting found.
func (c *Config) Validate() error {
	switch {
	case c.General.RefreshRate <= 0:
		return errors.Wrapf(ErrInvalidRefreshRate, "refresh_rate %s", c.General.RefreshRate)
	case c.General.ScanPadding <= 0:
		return errors.Wrapf(ErrInvalidPadding, "scan_padding %d", c.General.ScanPadding)
	case c.General.CapturePadding <= 0:
		return errors.Wrapf(ErrInvalidPadding, "capture_padding %d", c.General.CapturePadding)
	case c.Identity.OverlapThreshold <= 0 || c.Identity.OverlapThreshold > 1:
		return errors.Wrapf(ErrInvalidThreshold, "overlap_threshold %v", c.Identity.OverlapThreshold)
	case !unit(c.Vision.UIConfidence):
		return errors.Wrapf(ErrInvalidConfidence, "ui_confidence %v", c.Vision.UIConfidence)
	case !unit(c.Vision.ProseConfidence):
		return errors.Wrapf(ErrInvalidConfidence, "prose_confidence %v", c.Vision.ProseConfidence)
	case c.Vision.BatchCap <= 0 || c.Vision.Workers <= 0:
		return errors.Wrapf(ErrInvalidBatch, "batch_cap %d workers %d", c.Vision.BatchCap, c.Vision.Workers)
	case c.Cache.MaxSize <= 0:
		return errors.Wrapf(ErrInvalidCacheSize, "max_size %d", c.Cache.MaxSize)
	case c.Focus.Debounce < 0:
		return errors.Wrapf(ErrInvalidDuration, "debounce %s", c.Focus.Debounce)
	case c.Focus.ProbeDelay < 0:
		return errors.Wrapf(ErrInvalidDuration, "probe_delay %s", c.Focus.ProbeDelay)
	case c.Recovery.Cooldown < 0:
		return errors.Wrapf(ErrInvalidDuration, "cooldown %s", c.Recovery.Cooldown)
	case c.Recovery.HealthInterval <= 0:
		return errors.Wrapf(ErrInvalidDuration, "health_interval %s", c.Recovery.HealthInterval)
	case c.Recovery.MemoryHighWater <= 0 || c.Recovery.MemoryHighWater > 100:
		return errors.Wrapf(ErrInvalidHighWater, "memory_high_water %v", c.Recovery.MemoryHighWater)
	case c.Accessibility.MaxDepth <= 0:
		return errors.Wrapf(ErrInvalidDepth, "max_depth %d", c.Accessibility.MaxDepth)
	case c.Speech.Rate <= 0:
		return errors.Wrapf(ErrInvalidSpeechRate, "rate %d", c.Speech.Rate)
	}
	for name, n := range c.Recovery.Thresholds {
		if n <= 0 {
			return errors.Errorf("invalid recovery threshold for %q: must be positive", name)
		}
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

// ConfigDir returns the XDG config directory for focus-narrator.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultPath returns the config file looked up when none is named.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
