package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/audio"
	"github.com/alkime/intake/internal/config"
	"github.com/alkime/intake/internal/gateway"
	"github.com/alkime/intake/internal/intake"
	"github.com/alkime/intake/internal/keyring"
	"github.com/alkime/intake/internal/logger"
	"github.com/alkime/intake/internal/tui"
)

// CLI defines the intake command structure.
type CLI struct {
	// Default TUI command (runs when no subcommand given)
	TUI TUICmd `cmd:"" default:"withargs" help:"Launch terminal UI for the intake workflow"`

	// Subcommands
	Devices DevicesCmd `cmd:"" help:"List available audio devices"`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration"`
}

// TUICmd is the default command that runs the intake TUI.
type TUICmd struct {
	BackendURL string `flag:"" optional:"" env:"INTAKE_BACKEND_URL" help:"Intake backend base URL"`
	MaxBytes   int64  `flag:"" default:"268435456" help:"Max buffered audio size (256MB)"`
	LogFile    string `flag:"" default:"intake.log" help:"Client log file path"`
}

// Run executes the TUI command.
func (c *TUICmd) Run() error {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.BackendURL != "" {
		cfg.BackendURL = c.BackendURL
	}

	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logg := logger.SetupClientLogger(cfg, logFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := audio.NewDevice(audio.DefaultDeviceConfig())
	recorder, err := audio.NewRecorder(audio.DefaultDeviceConfig(), dev, c.MaxBytes)
	if err != nil {
		return fmt.Errorf("failed to create audio recorder: %w", err)
	}

	client := gateway.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	coord := intake.New(ctx, intake.NewSession(), client, recorder, logg)

	controls := tui.RecorderControls{
		Buffer: audio.NewBufferDial(recorder, c.MaxBytes),
		Levels: audio.NewLevelSource(recorder, 4096),
	}

	p := tea.NewProgram(tui.New(coord, controls, client.DownloadReport))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	fmt.Println("\nfinished. bye!")

	return nil
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	adev := audio.NewDevice(nil)
	devices, err := adev.EnumerateDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formatCount", dev.FormatCount,
			"formats", dev.Formats,
		)
	}

	return nil
}

// ConfigCmd manages stored configuration.
type ConfigCmd struct {
	SetKey SetKeyCmd `cmd:"" help:"Store a secret in the system keychain"`
	Check  CheckCmd  `cmd:"" help:"Check which secrets are configured"`
}

// SetKeyCmd stores a secret in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" required:"" help:"Service name: openai, anthropic or backend"`
	Value   string `arg:"" required:"" help:"Secret value"`
}

// Run executes the set-key command.
func (s *SetKeyCmd) Run() error {
	apiKey, err := keyring.APIKeyFromServiceName(s.Service)
	if err != nil {
		return err
	}

	if err := keyring.Set(apiKey, s.Value); err != nil {
		return err
	}

	fmt.Printf("stored %s secret in keychain\n", apiKey.DisplayName())

	return nil
}

// CheckCmd reports which secrets are configured.
type CheckCmd struct{}

// Run executes the check command.
func (c *CheckCmd) Run() error {
	for _, apiKey := range keyring.AllAPIKeys() {
		status := "not set"
		if keyring.IsSet(apiKey) {
			status = "set"
		}
		fmt.Printf("%-10s %s\n", apiKey.DisplayName(), status)
	}

	return nil
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("intake"),
		kong.Description("Terminal client for emergency department audio intake"),
		kong.UsageOnError(),
	)

	if err := kctx.Run(); err != nil {
		kctx.FatalIfErrorf(err)
	}
}
