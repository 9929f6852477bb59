package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"flywheel/cmd"
	"flywheel/httpserving"
	"flywheel/httpserving/router"
	"flywheel/httpserving/stats"
	"flywheel/httpserving/static"
	"flywheel/infrastructure/PAL/args"
	"flywheel/infrastructure/PAL/signal"
	"flywheel/infrastructure/reactor"
	"flywheel/presentation"
	"flywheel/presentation/tui"
	"flywheel/settings"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	opts, err := cmd.Parse(args.NewDefaultProvider())
	if err != nil {
		fmt.Fprintf(os.Stderr, "flywheel: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "flywheel: ", log.LstdFlags)

	config, err := settings.Load(opts.ConfigPath)
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keepAlive := settings.NewKeepAliveWatcher(ctx, opts.ConfigPath, config.KeepAliveTimeoutSecs, logger)

	var srv *reactor.Server

	trie := router.New()
	staticHandler := static.New(config.StaticRoot)
	statsHandler := stats.New(func() []*reactor.Worker { return srv.Workers() })
	trie.Register("/stats", statsHandler.JSON)

	processor := httpserving.NewProcessor(trie, staticHandler.Bind(), logger)

	srv = reactor.NewServer(config, processor, keepAlive.Seconds, logger)

	runner := &presentation.Runner{
		Config:      config,
		Server:      srv,
		Signals:     signal.NewDefaultProvider(),
		Logger:      logger,
		KeepWatcher: keepAlive,
		StatsWS:     statsHandler.WS,
	}

	if opts.Dashboard {
		go func() {
			if err := runner.Run(ctx); err != nil {
				logger.Printf("server exited: %v", err)
			}
			cancel()
		}()

		model := tui.New(func() []*reactor.Worker { return srv.Workers() }, 0)
		program := tea.NewProgram(model)
		if _, err := program.Run(); err != nil {
			logger.Printf("dashboard exited: %v", err)
		}
		cancel()
		return
	}

	if err := runner.Run(ctx); err != nil {
		logger.Printf("server exited: %v", err)
	}
}
