package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/devicelab-dev/inji-pages/pkg/appium"
	"github.com/devicelab-dev/inji-pages/pkg/config"
	"github.com/devicelab-dev/inji-pages/pkg/logger"
	"github.com/devicelab-dev/inji-pages/pkg/page"
	"github.com/devicelab-dev/inji-pages/pkg/page/receivecard"
)

var locatorsCommand = &cli.Command{
	Name:  "locators",
	Usage: "Print the Receive Card locators after config overrides",
	Description: `Lists every element the Receive Card page object knows about.
Does not need a device.

Examples:
  inji-pages locators
  inji-pages -c staging.yaml locators`,
	Action: runLocators,
}

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Report header, waiting indicator and QR code state of the Receive Card screen",
	Description: `Opens an Appium session and checks the Receive Card screen.
Exits non-zero when the header is not displayed.

Examples:
  inji-pages status
  inji-pages -l filipino status`,
	Action: runStatus,
}

var allowCommand = &cli.Command{
	Name:   "allow",
	Usage:  "Tap the Allow prompt on the Receive Card screen",
	Action: runAllow,
}

func runLocators(c *cli.Context) error {
	cfg, err := loadRunConfig(c)
	if err != nil {
		return err
	}

	screen := receivecard.New(nil, cfg.ScreenLocators(receivecard.Screen))
	locators := screen.Locators()
	logger.Info("Resolved %d locators for %s", len(locators), receivecard.Screen)

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTRATEGY\tPICK\tSELECTOR")
	for _, name := range locators.Names() {
		loc := locators[name]
		pick := "first"
		if loc.Pick != "" {
			pick = string(loc.Pick)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, loc.Strategy, pick, loc.Value)
	}
	return tw.Flush()
}

func runStatus(c *cli.Context) error {
	cfg, err := loadRunConfig(c)
	if err != nil {
		return err
	}
	lang, err := receivecard.ParseLanguage(cfg.Language)
	if err != nil {
		return err
	}

	s, err := openReceiveCard(c, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	w := c.App.Writer
	fmt.Fprintf(w, "Receive Card (%s)\n", lang)

	header, err := s.screen.IsHeaderDisplayed(lang)
	if err != nil {
		return s.fail("status", err)
	}
	printCheck(w, header, "header displayed")

	waiting, err := s.screen.IsWaitingIndicatorDisplayed()
	if err != nil {
		return s.fail("status", err)
	}
	printCheck(w, waiting, "waiting for connection")

	qr, err := s.screen.IsQrCodeEnabled()
	if err != nil {
		return s.fail("status", err)
	}
	printCheck(w, qr, "QR code enabled")

	if !header {
		return s.fail("status", cli.Exit("receive card header is not displayed", 1))
	}
	return nil
}

func runAllow(c *cli.Context) error {
	cfg, err := loadRunConfig(c)
	if err != nil {
		return err
	}

	s, err := openReceiveCard(c, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := s.screen.ClickAllow(); err != nil {
		return s.fail("allow", fmt.Errorf("click allow: %w", err))
	}
	printCheck(c.App.Writer, true, "allow clicked")
	return nil
}

// loadRunConfig resolves config: .env files, config file, environment, then flags.
func loadRunConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return nil, err
	}

	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if c.IsSet("appium-url") {
		cfg.AppiumURL = c.String("appium-url")
	}
	if c.IsSet("timeout") {
		cfg.FindTimeoutMs = c.Int("timeout")
	}
	if c.IsSet("language") {
		cfg.Language = c.String("language")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if capsFile := c.String("caps"); capsFile != "" {
		caps, err := loadCapabilities(capsFile)
		if err != nil {
			return nil, err
		}
		if cfg.Capabilities == nil {
			cfg.Capabilities = make(map[string]interface{})
		}
		for k, v := range caps {
			cfg.Capabilities[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.LogFile != "" {
		level := zapcore.InfoLevel
		if c.Bool("verbose") {
			level = zapcore.DebugLevel
		}
		if err := logger.InitWithLevel(cfg.LogFile, level); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadCapabilities loads Appium capabilities from a JSON file.
func loadCapabilities(capsFile string) (map[string]interface{}, error) {
	data, err := os.ReadFile(capsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read caps file: %w", err)
	}

	var caps map[string]interface{}
	if err := json.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("failed to parse caps JSON: %w", err)
	}
	return caps, nil
}

// receiveCardSession is an open Appium session with the Receive Card page bound to it.
type receiveCardSession struct {
	client       *appium.Client
	screen       *receivecard.ReceiveCard
	w            io.Writer
	artifactsDir string
}

// openReceiveCard creates an Appium session and binds the Receive Card page to it.
func openReceiveCard(c *cli.Context, cfg *config.Config) (*receiveCardSession, error) {
	w := c.App.Writer
	printSetupStep(w, fmt.Sprintf("Connecting to Appium server: %s", cfg.AppiumURL))

	caps := make(map[string]interface{}, len(cfg.Capabilities)+2)
	for k, v := range cfg.Capabilities {
		caps[k] = v
	}
	if caps["platformName"] == nil {
		caps["platformName"] = "Android"
	}
	if caps["appium:automationName"] == nil {
		caps["appium:automationName"] = "UiAutomator2"
	}

	client := appium.NewClient(cfg.AppiumURL)
	logger.Info("Creating Appium session with capabilities: %v", caps)
	if err := client.Connect(caps); err != nil {
		logger.Error("Failed to create Appium session: %v", err)
		return nil, fmt.Errorf("create Appium session: %w", err)
	}
	logger.Info("Appium session %s created (%s)", client.SessionID(), client.Platform())

	// The helper polls on its own; a server-side implicit wait would stretch every attempt
	if err := client.SetImplicitWait(0); err != nil {
		logger.Warn("Failed to reset implicit wait: %v", err)
	}

	base := page.NewBase(client, cfg.HelperOptions()...)
	printSetupStep(w, fmt.Sprintf("Session %s, element wait %s", client.SessionID(), base.Timeout()))

	return &receiveCardSession{
		client:       client,
		screen:       receivecard.New(base, cfg.ScreenLocators(receivecard.Screen)),
		w:            w,
		artifactsDir: c.String("artifacts-dir"),
	}, nil
}

// fail captures artifacts for the failed command and returns err unchanged.
func (s *receiveCardSession) fail(command string, err error) error {
	if s.artifactsDir != "" {
		for _, path := range captureArtifacts(s.client, s.artifactsDir, command) {
			fmt.Fprintf(s.w, "  saved %s\n", path)
		}
	}
	return err
}

func (s *receiveCardSession) close() {
	if err := s.client.Disconnect(); err != nil {
		logger.Warn("Failed to close Appium session: %v", err)
	}
}
