package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/verdantloop/garden-autobuyer/autobuyer"
	"github.com/verdantloop/garden-autobuyer/config"
	"github.com/verdantloop/garden-autobuyer/domshop"
	"github.com/verdantloop/garden-autobuyer/input"
	"github.com/verdantloop/garden-autobuyer/vision"
)

// domReadyTimeout bounds the wait for the shop container after a CDP
// attach; the shop may simply not be open yet, so timing out is not
// fatal.
const domReadyTimeout = 5 * time.Second

var (
	flagConfig   string
	flagDebug    bool
	flagHeadless bool
	flagOCR      bool
	flagDOM      bool
	flagCDPPort  int
)

var rootCmd = &cobra.Command{
	Use:          "garden-autobuyer",
	Short:        "Watches the in-game shop and buys configured items as they restock",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the purchase loop until interrupted",
	RunE:  runLoop,
}

var setRegionCmd = &cobra.Command{
	Use:   "set-region",
	Short: "Capture the shop screen region from two pointer positions",
	RunE:  setRegion,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run a single scan and write the debug artifacts",
	RunE:  snapshot,
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Probe the browser client for shop selectors over CDP",
	RunE:  discover,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.json", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "verbose logging and scan artifacts")

	runCmd.Flags().BoolVar(&flagHeadless, "headless", false, "disable global hotkeys")
	runCmd.Flags().BoolVar(&flagOCR, "ocr", false, "force OCR detection")
	runCmd.Flags().BoolVar(&flagDOM, "dom", false, "force DOM detection")
	runCmd.Flags().IntVar(&flagCDPPort, "cdp-port", 0, "override the CDP port for DOM detection")
	runCmd.MarkFlagsMutuallyExclusive("ocr", "dom")

	rootCmd.AddCommand(runCmd, setRegionCmd, snapshotCmd, discoverCmd, versionCmd)
}

// loadConfig reads the config file and applies the command line
// overrides on top.
func loadConfig() *config.Config {
	cfg := config.Load(flagConfig)
	if flagOCR {
		cfg.DetectionMode = config.DetectOCR
	}
	if flagDOM {
		cfg.DetectionMode = config.DetectDOM
	}
	if flagCDPPort > 0 {
		cfg.DOM.CDPPort = flagCDPPort
	}
	if flagDebug {
		cfg.Debug = true
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return cfg
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		det autobuyer.Detector
		drv autobuyer.Driver
	)
	if cfg.DetectionMode == config.DetectDOM {
		client, err := domshop.Connect(cfg.DOM)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.WaitFor(cfg.DOM.Selectors.Container, domReadyTimeout); err != nil {
			log.Warn().Err(err).Str("selector", cfg.DOM.Selectors.Container).
				Msg("shop container not visible yet, scanning anyway")
		}
		det = domshop.NewShop(client, cfg.DOM.Selectors, cfg.FuzzyDistance)
		drv = domshop.NewDriver(client)
	} else {
		scanner := vision.NewScanner(cfg)
		defer scanner.Close()
		det = scanner
		drv = input.NewRobotDriver()
	}

	buyer := autobuyer.New(cfg, det, drv)
	if !flagHeadless {
		go input.ListenHotkeys(ctx, cfg.Hotkeys, func() { buyer.TogglePause() }, stop)
	}

	if cfg.StartupDelayMs > 0 {
		log.Info().Int("ms", cfg.StartupDelayMs).Msg("startup delay, switch to the game window")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(cfg.StartupDelayMs) * time.Millisecond):
		}
	}

	err := buyer.Run(ctx)
	snap := buyer.Stats()
	log.Info().
		Int("cycles", snap.Cycles).
		Int("scans", snap.Scans).
		Int("detected", snap.Detected).
		Int("purchased", snap.Purchased).
		Msg("run finished")
	return err
}

// setRegion samples the pointer at two corners of the shop window and
// saves the resulting region.
func setRegion(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	x1, y1, err := sampleCorner("top-left")
	if err != nil {
		return err
	}
	x2, y2, err := sampleCorner("bottom-right")
	if err != nil {
		return err
	}

	cfg.Region = config.Region{
		X: min(x1, x2),
		Y: min(y1, y2),
		W: absInt(x2 - x1),
		H: absInt(y2 - y1),
	}
	if cfg.Region.Empty() {
		return fmt.Errorf("corners describe an empty region")
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	log.Info().
		Int("x", cfg.Region.X).Int("y", cfg.Region.Y).
		Int("w", cfg.Region.W).Int("h", cfg.Region.H).
		Msg("region saved")
	return nil
}

// sampleCorner counts down, then reads the pointer position.
func sampleCorner(corner string) (int, int, error) {
	for i := 5; i > 0; i-- {
		log.Info().Int("seconds", i).Str("corner", corner).Msg("move the pointer to the corner")
		time.Sleep(time.Second)
	}
	x, y := input.PointerPosition()
	log.Info().Str("corner", corner).Int("x", x).Int("y", y).Msg("corner captured")
	return x, y, nil
}

// snapshot runs one scan of the configured region and dumps the frame,
// mask, and annotated artifacts regardless of the debug flag.
func snapshot(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.Debug = true

	scanner := vision.NewScanner(cfg)
	defer scanner.Close()

	items, err := scanner.ScanShop(cfg.Targets)
	if err != nil {
		return err
	}
	for _, item := range items {
		log.Info().
			Str("target", item.Target).
			Str("text", item.Text).
			Int("x", item.Pos.X).Int("y", item.Pos.Y).
			Msg("detected")
	}
	log.Info().Int("items", len(items)).Str("dir", cfg.DebugDir).Msg("snapshot written")
	return nil
}

// discover attaches over CDP and logs shop selector candidates.
func discover(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	client, err := domshop.Connect(cfg.DOM)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.WaitFor(cfg.DOM.Selectors.Container, domReadyTimeout); err != nil {
		log.Warn().Err(err).Str("selector", cfg.DOM.Selectors.Container).
			Msg("shop container not visible, probing anyway")
	}

	shop := domshop.NewShop(client, cfg.DOM.Selectors, cfg.FuzzyDistance)
	shop.Discover(cfg.Targets)
	return nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
