package main

import (
	"flag"
	"fmt"
	"os"

	"parley/internal/app"
	"parley/internal/client"
	"parley/internal/config"
	"parley/internal/logging"
	"parley/internal/store"
)

const version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.parley/config.toml)")
		serverURL   = flag.String("server", "", "answer service base URL (overrides config)")
		userID      = flag.String("user", "", "user id (overrides config)")
		logLevel    = flag.String("log-level", "", "log level: debug, info, warn, error")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("parley", version)
		return
	}
	if err := run(*configPath, *serverURL, *userID, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "parley:", err)
		os.Exit(1)
	}
}

func run(configPath, serverURL, userID, logLevel string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serverURL != "" {
		cfg.Server.BaseURL = serverURL
	}
	if userID != "" {
		cfg.User.ID = userID
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	statePath, err := config.StatePath()
	if err != nil {
		return fmt.Errorf("state path: %w", err)
	}
	local, err := store.Open(statePath)
	if err != nil {
		return fmt.Errorf("open local state: %w", err)
	}
	defer local.Close()

	api := client.New(cfg.BaseURL(), cfg.HTTPTimeout(), log)
	log.Info("starting",
		logging.F("version", version),
		logging.F("server", cfg.BaseURL()),
		logging.F("user", cfg.UserID()),
	)
	return app.Run(cfg, api, local, log)
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// openLogger builds the logger from config. The UI owns the terminal,
// so logs always go to a file.
func openLogger(cfg config.Config) (logging.Logger, func(), error) {
	path := cfg.LogFile()
	if path == "" {
		defaultPath, err := config.LogPath()
		if err != nil {
			return logging.Nop(), func() {}, nil
		}
		path = defaultPath
	}
	fl, err := logging.NewFileLogger(path, logging.ParseLevel(cfg.LogLevel()))
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return fl, func() { _ = fl.Close() }, nil
}
