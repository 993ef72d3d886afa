// Package config holds the flat, versioned settings document for the
// auto-buyer. A single schema (version 2) replaces the two incompatible
// shapes that existed historically; legacy files are migrated on load.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// SchemaVersion is the current config schema version.
const SchemaVersion = 2

// Shop mode selector values.
const (
	ShopModeSeed = "seed"
	ShopModeEgg  = "egg"
	ShopModeBoth = "both"
)

// Detection mode selector values.
const (
	DetectOCR = "ocr"
	DetectDOM = "dom"
)

var cfgLog = log.With().Str("module", "config").Logger()

// Region is the screen area the bot captures, in physical pixels.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether the region has no usable area.
func (r Region) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// StringList decodes either a JSON array of strings or a single
// semicolon-separated string. Operators hand-edit the config file, so
// both encodings are accepted.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*s = arr
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str == "" {
			*s = []string{}
			return nil
		}
		parts := strings.Split(str, ";")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		*s = result
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into StringList", string(data))
}

// HSVRange is one inclusive window in OpenCV HSV space
// (H 0-180, S 0-255, V 0-255).
type HSVRange struct {
	LowH  float64 `json:"low_h"`
	LowS  float64 `json:"low_s"`
	LowV  float64 `json:"low_v"`
	HighH float64 `json:"high_h"`
	HighS float64 `json:"high_s"`
	HighV float64 `json:"high_v"`
}

// ButtonConfig drives the green buy-button detector. Distances are
// expressed at the baseline region height and scaled at runtime.
type ButtonConfig struct {
	Ranges    []HSVRange `json:"ranges"`
	MinArea   int        `json:"min_area"`
	MinAspect float64    `json:"min_aspect"`
	MaxAspect float64    `json:"max_aspect"`
	MaxYDist  int        `json:"max_y_dist"`
	MaxXDist  int        `json:"max_x_dist"`
}

// DOMSelectors names the structured-document hooks for DOM detection
// mode. None of these are authoritative; run the discover subcommand
// against the live client before trusting them.
type DOMSelectors struct {
	Container      string `json:"container"`
	ItemRow        string `json:"item_row"`
	ItemName       string `json:"item_name"`
	StockIndicator string `json:"stock_indicator"`
	NoStockClass   string `json:"no_stock_class"`
	BuyButton      string `json:"buy_button"`
}

// DOMConfig is the DOM detection mode connection block.
type DOMConfig struct {
	CDPPort       int          `json:"cdp_port"`
	FrameSelector string       `json:"frame_selector"`
	Selectors     DOMSelectors `json:"selectors"`
}

// Hotkeys are the global toggle/stop keys observed while running.
type Hotkeys struct {
	Toggle string `json:"toggle"`
	Stop   string `json:"stop"`
}

// Config is the full settings document.
type Config struct {
	Version int `json:"version"`

	Region  Region     `json:"region"`
	Targets StringList `json:"targets"`

	StockMarker string `json:"stock_marker"`
	NoStockWord string `json:"no_stock_word"`
	EndMarker   string `json:"end_marker"`
	ShopMode    string `json:"shop_mode"`

	ScanIntervalMs int `json:"scan_interval_ms"`
	ClickDelayMs   int `json:"click_delay_ms"`
	SettleDelayMs  int `json:"settle_delay_ms"`
	StartupDelayMs int `json:"startup_delay_ms"`

	MaxBuyAttempts int `json:"max_buy_attempts"`
	MaxScrollPages int `json:"max_scroll_pages"`
	ScrollAmount   int `json:"scroll_amount"`

	MinConfidence    float64 `json:"min_confidence"`
	FuzzyDistance    int     `json:"fuzzy_distance"`
	StockTolerancePx int     `json:"stock_tolerance_px"`

	DetectionMode string `json:"detection_mode"`
	Debug         bool   `json:"debug"`
	DebugDir      string `json:"debug_dir"`

	Hotkeys Hotkeys      `json:"hotkeys"`
	Button  ButtonConfig `json:"button"`
	DOM     DOMConfig    `json:"dom"`

	path string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: SchemaVersion,
		Targets: StringList{
			"Mythical Egg", "Sunflower Seed", "Bamboo Seed",
			"Dawnbinder Pod", "Moonbinder Pod", "Cactus Seed",
			"Starweaver Pod",
		},
		StockMarker:      "STOCK",
		NoStockWord:      "NO",
		EndMarker:        "Restocks",
		ShopMode:         ShopModeBoth,
		ScanIntervalMs:   500,
		ClickDelayMs:     100,
		SettleDelayMs:    800,
		StartupDelayMs:   3000,
		MaxBuyAttempts:   50,
		MaxScrollPages:   25,
		ScrollAmount:     -5,
		MinConfidence:    60,
		FuzzyDistance:    2,
		StockTolerancePx: 24,
		DetectionMode:    DetectOCR,
		DebugDir:         "debug",
		Hotkeys:          Hotkeys{Toggle: "f6", Stop: "f7"},
		Button: ButtonConfig{
			Ranges: []HSVRange{
				// Saturated green of the active buy button.
				{LowH: 35, LowS: 80, LowV: 80, HighH: 85, HighS: 255, HighV: 255},
				// Washed-out shade the same button takes under the hover overlay.
				{LowH: 35, LowS: 40, LowV: 120, HighH: 90, HighS: 160, HighV: 255},
			},
			MinArea:   400,
			MinAspect: 1.6,
			MaxAspect: 8.0,
			MaxYDist:  150,
			MaxXDist:  200,
		},
		DOM: DOMConfig{
			CDPPort:       9222,
			FrameSelector: "iframe",
			Selectors: DOMSelectors{
				Container:      ".shop-container",
				ItemRow:        ".shop-item",
				ItemName:       ".item-name",
				StockIndicator: ".stock",
				NoStockClass:   "out-of-stock",
				BuyButton:      ".buy-button",
			},
		},
	}
}

// Load reads the config at path. A missing or unreadable file falls
// back to defaults; a legacy (pre-versioned) file is migrated and the
// migrated form is written back. Load never fails the caller.
func Load(path string) *Config {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		cfgLog.Warn().Str("path", path).Err(err).
			Msg("config not readable, using defaults")
		return cfg
	}

	var raw map[string]any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		cfgLog.Warn().Str("path", path).Err(err).
			Msg("invalid config file, using defaults")
		return cfg
	}

	if isLegacy(raw) {
		migrated := migrateLegacy(raw)
		data, err = sonic.Marshal(migrated)
		if err != nil {
			cfgLog.Error().Err(err).Msg("legacy migration failed, using defaults")
			return cfg
		}
		if err := sonic.Unmarshal(data, cfg); err != nil {
			cfgLog.Error().Err(err).Msg("legacy migration failed, using defaults")
			return cfg
		}
		cfg.Normalize()
		if err := cfg.Save(); err != nil {
			cfgLog.Warn().Err(err).Msg("could not write migrated config")
		}
		return cfg
	}

	if err := sonic.Unmarshal(data, cfg); err != nil {
		cfgLog.Warn().Str("path", path).Err(err).
			Msg("config did not decode cleanly, using defaults")
		cfg = Default()
		cfg.path = path
		return cfg
	}
	cfg.path = path
	cfg.Normalize()
	return cfg
}

// Save writes the config back to its source path, atomically.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no backing file")
	}
	data, err := sonic.ConfigStd.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Path returns the backing file path, if any.
func (c *Config) Path() string { return c.path }

// SetPath sets the backing file path for Save.
func (c *Config) SetPath(path string) { c.path = filepath.Clean(path) }

// Normalize clamps out-of-range values back to sane ones so a
// hand-edited file cannot stall or spin the loop.
func (c *Config) Normalize() {
	def := Default()
	c.Version = SchemaVersion
	if c.ShopMode != ShopModeSeed && c.ShopMode != ShopModeEgg && c.ShopMode != ShopModeBoth {
		c.ShopMode = ShopModeBoth
	}
	if c.DetectionMode != DetectOCR && c.DetectionMode != DetectDOM {
		c.DetectionMode = DetectOCR
	}
	if c.ScanIntervalMs < 50 {
		c.ScanIntervalMs = def.ScanIntervalMs
	}
	if c.ClickDelayMs < 10 {
		c.ClickDelayMs = def.ClickDelayMs
	}
	if c.SettleDelayMs < 0 {
		c.SettleDelayMs = def.SettleDelayMs
	}
	if c.StartupDelayMs < 0 {
		c.StartupDelayMs = 0
	}
	if c.MaxBuyAttempts < 1 {
		c.MaxBuyAttempts = def.MaxBuyAttempts
	}
	if c.MaxScrollPages < 1 {
		c.MaxScrollPages = def.MaxScrollPages
	}
	if c.ScrollAmount == 0 {
		c.ScrollAmount = def.ScrollAmount
	}
	if c.MinConfidence <= 0 || c.MinConfidence > 100 {
		c.MinConfidence = def.MinConfidence
	}
	if c.FuzzyDistance < 0 {
		c.FuzzyDistance = def.FuzzyDistance
	}
	if c.StockTolerancePx <= 0 {
		c.StockTolerancePx = def.StockTolerancePx
	}
	if len(c.Button.Ranges) == 0 {
		c.Button = def.Button
	}
	if c.Button.MinAspect <= 0 {
		c.Button.MinAspect = def.Button.MinAspect
	}
	if c.Button.MaxAspect <= c.Button.MinAspect {
		c.Button.MaxAspect = def.Button.MaxAspect
	}
	if c.Button.MinArea <= 0 {
		c.Button.MinArea = def.Button.MinArea
	}
	if c.Button.MaxYDist <= 0 {
		c.Button.MaxYDist = def.Button.MaxYDist
	}
	if c.Button.MaxXDist <= 0 {
		c.Button.MaxXDist = def.Button.MaxXDist
	}
	if c.DOM.CDPPort <= 0 {
		c.DOM.CDPPort = def.DOM.CDPPort
	}
	if c.DOM.FrameSelector == "" {
		c.DOM.FrameSelector = def.DOM.FrameSelector
	}
	if c.StockMarker == "" {
		c.StockMarker = def.StockMarker
	}
	if c.DebugDir == "" {
		c.DebugDir = def.DebugDir
	}
	if c.Hotkeys.Toggle == "" {
		c.Hotkeys.Toggle = def.Hotkeys.Toggle
	}
	if c.Hotkeys.Stop == "" {
		c.Hotkeys.Stop = def.Hotkeys.Stop
	}
}

// TargetsForShop filters the configured targets for one shop phase.
// Seed-shop listings name seeds and pods, egg-shop listings name eggs.
func (c *Config) TargetsForShop(shop string) []string {
	out := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		switch shop {
		case ShopModeSeed:
			if strings.Contains(t, "Seed") || strings.Contains(t, "Pod") {
				out = append(out, t)
			}
		case ShopModeEgg:
			if strings.Contains(t, "Egg") {
				out = append(out, t)
			}
		default:
			out = append(out, t)
		}
	}
	return out
}
