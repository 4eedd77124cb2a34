package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/sciencemonk/talktomysim-sub002/pkg/ai"
	_ "github.com/sciencemonk/talktomysim-sub002/pkg/ai/providers"
	"github.com/sciencemonk/talktomysim-sub002/pkg/chat"
	"github.com/sciencemonk/talktomysim-sub002/pkg/config"
	"github.com/sciencemonk/talktomysim-sub002/pkg/logging"
	"github.com/sciencemonk/talktomysim-sub002/pkg/store"
	"github.com/sciencemonk/talktomysim-sub002/pkg/ui"
	"github.com/sciencemonk/talktomysim-sub002/pkg/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", config.GetConfigPath(), "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("simchat %s %s %s\n", version.Summary(), version.Platform(), version.GoVersion)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging unavailable: %v\n", err)
	}
	slog.Info("simchat_starting",
		"version", version.Summary(),
		"provider", cfg.LLMProvider,
		"store", cfg.Store.Backend,
	)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("simchat requires an interactive terminal")
	}

	conversationStore, err := store.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}

	provider, err := ai.GetProviderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initializing provider: %w", err)
	}

	sim := chat.SimProfile{
		ID:             cfg.Providers.Sim.SimID,
		Name:           simDisplayName(cfg),
		WelcomeMessage: cfg.Providers.Sim.WelcomeMessage,
	}
	session := chat.NewSession(conversationStore, provider, cfg.UserID, sim)
	if err := session.Start(context.Background()); err != nil {
		return fmt.Errorf("starting conversation: %w", err)
	}

	p := tea.NewProgram(ui.NewModel(session, sim.Name))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	slog.Info("simchat_stopped")
	return nil
}

// simDisplayName picks the header label for the chat screen. The sim ID is
// used when talking to the sim platform; other providers get a generic label.
func simDisplayName(cfg config.Config) string {
	if cfg.LLMProvider == "sim" && cfg.Providers.Sim.SimID != "" {
		return cfg.Providers.Sim.SimID
	}
	return "Assistant"
}
