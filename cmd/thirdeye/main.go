package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/leonardotrapani/thirdeye/internal/bus"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/daemon"
	"github.com/leonardotrapani/thirdeye/internal/deps"
	"github.com/leonardotrapani/thirdeye/internal/pipeline"
	"github.com/leonardotrapani/thirdeye/internal/provider"
	"github.com/leonardotrapani/thirdeye/internal/statusfeed"
	"github.com/leonardotrapani/thirdeye/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "thirdeye",
	Short:         "Camera scene descriptions read aloud",
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		simpleCmd("start", "Start the capture loop", bus.CmdStart),
		simpleCmd("stop", "Stop the capture loop", bus.CmdStop),
		simpleCmd("toggle", "Toggle the capture loop on/off", bus.CmdToggle),
		simpleCmd("capture", "Describe one frame now (dropped while busy)", bus.CmdCapture),
		simpleCmd("version", "Get protocol version", bus.CmdVersion),
		simpleCmd("quit", "Stop the daemon", bus.CmdQuit),
		statusCmd(),
		argCmd("source <local|remote>", "Switch the camera source (loop must be stopped)", bus.CmdSource),
		argCmd("mode <live|navigation>", "Switch the description mode", bus.CmdMode),
		argCmd("language <tag>", "Set the description language, e.g. es-ES", bus.CmdLanguage),
		argCmd("speed <rate>", "Set the speech rate, e.g. 1.5", bus.CmdSpeed),
		watchCmd(),
		configureCmd(),
		doctorCmd(),
		modelCmd(),
		backendCmd(),
		testModelsCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := daemon.New()
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run()
		},
	}
}

// simpleCmd sends a bus command without argument and prints the reply.
func simpleCmd(use, short string, code byte) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(use, code, "")
		},
	}
}

func argCmd(use, short string, code byte) *cobra.Command {
	name, _, _ := strings.Cut(use, " ")
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(name, code, args[0])
		},
	}
}

func sendAndPrint(name string, code byte, arg string) error {
	resp, err := bus.SendCommand(code, arg)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", name, err)
	}
	fmt.Print(resp)
	if strings.HasPrefix(resp, "ERR ") {
		return fmt.Errorf("%s rejected by daemon", name)
	}
	return nil
}

func statusCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Get current capture loop status",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdStatus, "")
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			payload, ok := strings.CutPrefix(strings.TrimSpace(resp), "STATUS ")
			if raw || !ok {
				fmt.Print(resp)
				return nil
			}

			var snap pipeline.Snapshot
			if err := json.Unmarshal([]byte(payload), &snap); err != nil {
				return fmt.Errorf("failed to decode status: %w", err)
			}
			fmt.Println(tui.RenderSnapshot(snap))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the daemon reply as JSON")
	return cmd
}

func watchCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream status changes from the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				addr = cfg.General.StatusAddr
			}
			if addr == "" {
				return fmt.Errorf("status feed disabled: set general.status_addr in the config")
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return statusfeed.Watch(ctx, statusfeed.URL(addr), func(e statusfeed.Event) {
				fmt.Println(tui.RenderEvent(e))
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "status feed address (defaults to general.status_addr)")
	return cmd
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration for thirdeye.
This will guide you through setting up:
- The capture loop (camera source, mode, cadence, service URLs)
- Description language and playback
- Notifications
- The description backend and provider API keys (Gemini, OpenAI, Groq)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}

	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Println()

	showNextSteps(result.Config)
	return nil
}

func showNextSteps(cfg *config.Config) {
	serviceRunning := false
	if _, err := exec.Command("systemctl", "--user", "is-active", "--quiet", "thirdeye.service").CombinedOutput(); err == nil {
		serviceRunning = true
	}

	fmt.Println("Next Steps:")
	step := 1
	if missing := missingTools(cfg); len(missing) > 0 {
		fmt.Printf("%d. Install missing tools: %s\n", step, strings.Join(missing, ", "))
		step++
	}
	if !serviceRunning {
		fmt.Printf("%d. Start the service: systemctl --user start thirdeye.service\n", step)
	} else {
		fmt.Printf("%d. Restart the service to pick up player changes: systemctl --user restart thirdeye.service\n", step)
	}
	step++
	fmt.Printf("%d. Start describing: thirdeye toggle\n", step)
	fmt.Println()

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Config file location: %s\n", configPath)
}

func requiredTools(cfg *config.Config) []deps.Tool {
	desktop := cfg.NotificationsEnabled() && cfg.Notifications.Type == "desktop"
	return deps.Required(cfg.Playback.AudioPlayer, cfg.Playback.SpeechEngine, desktop)
}

func missingTools(cfg *config.Config) []string {
	var missing []string
	for _, tool := range requiredTools(cfg) {
		if !deps.Check(tool).Installed {
			missing = append(missing, tool.Name)
		}
	}
	return missing
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Println(tui.StyleHeader.Render("Tools"))
			missing := 0
			for _, tool := range requiredTools(cfg) {
				status := deps.Check(tool)
				if !status.Installed {
					missing++
					fmt.Printf("  %s %-12s %s\n", tui.StyleError.Render("[ ]"), tool.Name, tui.StyleMuted.Render(tool.Purpose))
					continue
				}
				fmt.Printf("  %s %-12s %s\n", tui.StyleSuccess.Render("[x]"), tool.Name, tui.StyleMuted.Render(status.Version))
			}

			fmt.Println()
			fmt.Println(tui.StyleHeader.Render("API keys"))
			for _, name := range provider.ListProviders() {
				mark := tui.StyleError.Render("[ ]")
				if cfg.ResolveAPIKey(name) != "" {
					mark = tui.StyleSuccess.Render("[x]")
				}
				fmt.Printf("  %s %s\n", mark, name)
			}

			if missing > 0 {
				return fmt.Errorf("%d required tool(s) missing", missing)
			}
			return nil
		},
	}
}

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect description and speech models",
	}
	cmd.AddCommand(modelListCmd())
	return cmd
}

func modelListCmd() *cobra.Command {
	var providerFilter string
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available vision and speech models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelList(providerFilter, typeFilter)
		},
	}

	cmd.Flags().StringVar(&providerFilter, "provider", "", "filter by provider name")
	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by type: vision, speech")

	return cmd
}

func runModelList(providerFilter, typeFilter string) error {
	var filterType *provider.ModelType
	if typeFilter != "" {
		switch strings.ToLower(typeFilter) {
		case "vision":
			t := provider.Vision
			filterType = &t
		case "speech":
			t := provider.Speech
			filterType = &t
		default:
			return fmt.Errorf("invalid type: %s (use 'vision' or 'speech')", typeFilter)
		}
	}

	providerNames := provider.ListProviders()
	if providerFilter != "" {
		if provider.GetProvider(providerFilter) == nil {
			return fmt.Errorf("unknown provider: %s", providerFilter)
		}
		providerNames = []string{providerFilter}
	}

	for _, providerName := range providerNames {
		p := provider.GetProvider(providerName)
		models := p.Models()
		if filterType != nil {
			models = provider.ModelsOfType(models, *filterType)
		}
		if len(models) == 0 {
			continue
		}

		fmt.Printf("\n%s:\n", providerName)
		for _, m := range models {
			printModelLine(p, m)
		}
	}

	fmt.Println()
	return nil
}

func printModelLine(p provider.Provider, m provider.Model) {
	prefix := "   "
	if m.ID == p.DefaultVisionModel() || m.ID == p.DefaultSpeechModel() {
		prefix = "  *"
	}

	line := fmt.Sprintf("%s %s", prefix, m.ID)
	if m.Description != "" {
		line += fmt.Sprintf(" - %s", m.Description)
	}
	line += fmt.Sprintf(" [%s]", m.Type)
	fmt.Println(line)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
