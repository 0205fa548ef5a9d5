package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/nameloc/internal/config"
	"github.com/muurk/nameloc/internal/directory"
	"github.com/muurk/nameloc/internal/discovery"
	"github.com/muurk/nameloc/internal/logging"
)

// Directory client flags, shared by form, locations, and check
var (
	apiURL    string
	transport string
	discover  bool
	debounce  time.Duration
)

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&apiURL, "api", "", "Directory server URL (empty = built-in mock)")
	cmd.Flags().StringVar(&transport, "transport", config.TransportHTTP, "Directory transport (http, ws)")
	cmd.Flags().BoolVar(&discover, "discover", false, "Find a directory server via mDNS when --api is empty")
}

// loadSettings reads the config file and applies any flags the user set
// explicitly. Flags left at their defaults never override the file.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		settings.Log.Level = logLevel
	}
	if flags.Lookup("api") != nil {
		if flags.Changed("api") {
			settings.API.URL = apiURL
		}
		if flags.Changed("transport") {
			settings.API.Transport = transport
		}
		if flags.Changed("discover") {
			settings.API.Discover = discover
		}
	}
	if flags.Changed("debounce") {
		settings.Form.Debounce = debounce
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// openDirectory builds the Directory described by settings. The returned
// label names it for headers and logs; closeFn releases any connection.
func openDirectory(ctx context.Context, settings *config.Settings) (dir directory.Directory, label string, closeFn func(), err error) {
	noop := func() {}

	baseURL := settings.API.URL
	if baseURL == "" && settings.API.Discover {
		scanner := discovery.NewScanner()
		if settings.API.DiscoverTimeout > 0 {
			scanner.Timeout = settings.API.DiscoverTimeout
		}
		svc, err := scanner.FindFirst(ctx)
		if err != nil {
			return nil, "", noop, fmt.Errorf("directory discovery failed: %w", err)
		}
		logging.Info("Using discovered directory server", zap.String("service", svc.String()))
		baseURL = svc.BaseURL()
	}

	if baseURL == "" {
		return settings.NewMockDirectory(), "built-in mock", noop, nil
	}

	switch settings.API.Transport {
	case config.TransportWebSocket:
		ws, err := directory.DialWS(ctx, baseURL)
		if err != nil {
			return nil, "", noop, err
		}
		return ws, baseURL + " (ws)", func() { _ = ws.Close() }, nil

	default:
		client := directory.NewClient(baseURL)
		if settings.API.Timeout > 0 {
			client.SetTimeout(settings.API.Timeout)
		}
		client.SetRetry(settings.API.Retries, directory.DefaultRetryDelay)
		client.CacheDuration = settings.API.CacheTTL
		return client, baseURL, noop, nil
	}
}

func directoryTips(settings *config.Settings) []string {
	if settings.API.URL == "" && !settings.API.Discover {
		return []string{"Check the mock section of your config file"}
	}
	return []string{
		"Is 'nameloc serve' running on the target host?",
		"Check --api and --transport",
		"Try 'nameloc scan' to list servers on this network",
	}
}
