package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"searchbox/internal/autocomplete"
	"searchbox/internal/config"
	"searchbox/internal/eventbus"
	"searchbox/internal/sources"
	"searchbox/internal/telemetry"
	"searchbox/internal/ui"
)

func main() {
	// Parse command line arguments
	var configPath string
	var initConfig bool
	flag.StringVar(&configPath, "config", "", "Path to searchbox.toml (default: user config dir)")
	flag.StringVar(&configPath, "c", "", "Path to searchbox.toml (shorthand)")
	flag.BoolVar(&initConfig, "init", false, "Write the default configuration and exit")
	flag.Parse()

	// Hold log lines until the config says where the log file lives
	var early bytes.Buffer
	log.SetOutput(&early)

	// Create event bus
	bus := eventbus.New()
	defer bus.Close()

	configSvc := config.NewConfigServiceWithBus(configPath, bus)

	if initConfig {
		if err := writeDefaultConfig(configSvc); err != nil {
			fmt.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", configSvc.Path())
		return
	}

	cfg, err := configSvc.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	logOutput := io.Discard
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open log file: %v\n", err)
	} else {
		defer logFile.Close()
		logOutput = logFile
	}
	log.SetOutput(logOutput)
	_, _ = logOutput.Write(early.Bytes())

	if cfg.Trace.Enabled {
		shutdown, err := initTracing(cfg, logOutput)
		if err != nil {
			log.Printf("Tracing disabled: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	set, err := sources.FromConfig(cfg.Sources, nil)
	if err != nil {
		log.Printf("Error building sources: %v", err)
		fmt.Printf("Error building sources: %v\n", err)
		os.Exit(1)
	}
	defer set.Close()

	controller, err := autocomplete.New(controllerOptions(cfg, set, bus))
	if err != nil {
		log.Printf("Error creating controller: %v", err)
		fmt.Printf("Error creating controller: %v\n", err)
		os.Exit(1)
	}
	defer controller.Destroy()

	// Create UI model
	log.Printf("Creating UI model...")
	uiModel, err := ui.NewModel(controller, cfg)
	if err != nil {
		log.Printf("Error creating UI: %v", err)
		fmt.Printf("Error creating UI: %v\n", err)
		os.Exit(1)
	}
	defer uiModel.Close()

	// Create Bubble Tea program
	p := tea.NewProgram(uiModel,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	stopForwarding := uiModel.Listen(p)
	defer stopForwarding()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		p.Quit()
	}()

	if os.Getenv("SEARCHBOX_E2E_TEST") == "1" {
		fmt.Println("__READY__")
	}

	// Run the UI
	log.Printf("Starting UI...")
	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Printf("UI exited normally")
}

// controllerOptions maps the configuration onto controller options
func controllerOptions(cfg *config.Config, set *sources.Set, bus eventbus.EventBus) autocomplete.Options {
	opts := autocomplete.DefaultOptions()
	opts.Sources = set.Sources
	opts.Placeholder = cfg.Placeholder
	opts.OpenOnFocus = cfg.OpenOnFocus
	opts.WrapNavigation = cfg.WrapNavigation
	opts.CloseOnSelect = cfg.CloseOnSelect
	opts.MaxConcurrentFetches = cfg.MaxConcurrentFetches
	opts.Bus = bus
	opts.OnNavigate = func(url string) {
		log.Printf("Navigation requested: %s", url)
	}

	// Validated on load
	if stall, err := cfg.StallDuration(); err == nil && stall != 0 {
		opts.StallThreshold = stall
	}
	return opts
}

func initTracing(cfg *config.Config, fallback io.Writer) (func(context.Context) error, error) {
	w := fallback
	if cfg.Trace.File != "" {
		f, err := os.OpenFile(cfg.Trace.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		w = f
		shutdown, err := telemetry.InitTracer("searchbox", w)
		if err != nil {
			f.Close()
			return nil, err
		}
		return func(ctx context.Context) error {
			defer f.Close()
			return shutdown(ctx)
		}, nil
	}
	return telemetry.InitTracer("searchbox", w)
}

// writeDefaultConfig saves the defaults unless a config file is already there
func writeDefaultConfig(configSvc config.ConfigService) error {
	if _, err := os.Stat(configSvc.Path()); err == nil {
		return fmt.Errorf("%s already exists", configSvc.Path())
	}
	return configSvc.Save(config.DefaultConfig())
}
