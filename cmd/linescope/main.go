// Package main provides the linescope application for collecting and
// serving power-line telemetry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/linescope/linescope/internal/app"
	"github.com/linescope/linescope/internal/constants"
	"github.com/linescope/linescope/internal/log"
	"github.com/linescope/linescope/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration (YAML file or SQLite database)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	logFile := flag.String("log-file", "", "Optional rotating log file path")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("linescope %s (%s/%s)\n", constants.Version, runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug, log.FileConfig{Path: *logFile}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	configProvider, err := createConfigProvider(*cfgFile)
	if err != nil {
		log.Errorf("Failed to create config provider: %v", err)
		os.Exit(1)
	}
	defer configProvider.Close()

	application := app.New(configProvider, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

// createConfigProvider picks the provider by file extension: .db and
// .sqlite select the SQLite provider, everything else is read as YAML.
func createConfigProvider(cfgFile string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".db", ".sqlite":
		provider, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		if _, err := provider.LoadConfig(); err != nil {
			provider.Close()
			return nil, fmt.Errorf("error reading config database: %w", err)
		}
		return provider, nil
	default:
		provider := config.NewYAMLProvider(filename)
		if _, err := provider.LoadConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		return provider, nil
	}
}
