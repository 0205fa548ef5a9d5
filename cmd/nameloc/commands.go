package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/nameloc/internal/config"
	"github.com/muurk/nameloc/internal/discovery"
	"github.com/muurk/nameloc/internal/form"
	"github.com/muurk/nameloc/internal/logging"
	"github.com/muurk/nameloc/internal/server"
	"github.com/muurk/nameloc/internal/ui"
)

func init() {
	addClientFlags(rootCmd)
	rootCmd.Flags().DurationVar(&debounce, "debounce", form.DefaultDebounce, "Quiet period before a name is checked")

	addClientFlags(formCmd)
	formCmd.Flags().DurationVar(&debounce, "debounce", form.DefaultDebounce, "Quiet period before a name is checked")

	addClientFlags(locationsCmd)
	addClientFlags(checkCmd)

	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(locationsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
}

// formCmd launches the interactive form
var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Launch the name/location form",
	Long: `Launch the interactive name/location form.

Type a name; once typing pauses it is checked against the directory.
Pick a location with the arrow keys after tabbing to the selector, then
press Enter to add the pair to the table.`,
	Example: `  # Built-in mock directory (also the default with no command)
  nameloc form

  # Remote directory over WebSocket
  nameloc form --api http://10.0.0.5:8080 --transport ws

  # First directory server advertised on the LAN
  nameloc form --discover`,
	RunE: runForm,
}

func runForm(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	// The form owns the terminal, so logs go to a file
	logFile := settings.Log.File
	if logFile == "" {
		if logFile, err = config.DefaultLogFile(); err != nil {
			return err
		}
	}
	if err := logging.InitializeWithOptions(logging.Options{Level: settings.Log.Level, File: logFile}); err != nil {
		return err
	}
	defer logging.Sync()

	dir, label, closeDir, err := openDirectory(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer closeDir()

	logging.Info("Starting form",
		zap.String("directory", label),
		zap.Duration("debounce", settings.Form.Debounce),
	)

	m := form.New(dir, form.Options{Debounce: settings.Form.Debounce})
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("form error: %w", err)
	}
	return nil
}

// Serve command and flags
var (
	serveHost      string
	servePort      int
	serveAdvertise bool
	serveLatency   time.Duration
	certPath       string
	keyPath        string
	captureDir     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock directory server",
	Long: `Serve the mock directory over HTTP and WebSocket.

Locations and taken names come from the mock section of the config file.
The server exposes Prometheus metrics on /metrics and can announce itself
on the LAN via mDNS so forms started with --discover find it.

To capture WebSocket frames for debugging, pass --capture-dir; one JSON
Lines transcript is written per session.`,
	Example: `  # Serve on :8080 with mDNS advertisement
  nameloc serve --advertise

  # Slow directory for exercising the form's pending states
  nameloc serve --latency 2s

  # HTTPS with your own certificate
  nameloc serve --port 8443 --tls-cert cert.pem --tls-key key.pem`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (empty = all interfaces)")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Listen port")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Announce the server via mDNS")
	serveCmd.Flags().DurationVar(&serveLatency, "latency", 0, "Simulated lookup latency")
	serveCmd.Flags().StringVar(&certPath, "tls-cert", "", "TLS certificate file (requires --tls-key)")
	serveCmd.Flags().StringVar(&keyPath, "tls-key", "", "TLS private key file (requires --tls-cert)")
	serveCmd.Flags().StringVar(&captureDir, "capture-dir", "", "Directory for WebSocket transcripts (disabled if not specified)")
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		settings.Server.Host = serveHost
	}
	if flags.Changed("port") {
		settings.Server.Port = servePort
	}
	if flags.Changed("advertise") {
		settings.Server.Advertise = serveAdvertise
	}
	if flags.Changed("latency") {
		settings.Mock.Latency = serveLatency
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	if (certPath == "") != (keyPath == "") {
		return fmt.Errorf("both --tls-cert and --tls-key must be provided together")
	}
	if captureDir != "" {
		info, err := os.Stat(captureDir)
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("capture directory does not exist: %s", captureDir)
		}
		if err != nil {
			return fmt.Errorf("cannot access capture directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("capture path is not a directory: %s", captureDir)
		}
	}

	level := settings.Log.Level
	if level == "" {
		level = "info"
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	defer logging.Sync()

	srv, err := server.New(&server.Config{
		Host:       settings.Server.Host,
		Port:       settings.Server.Port,
		Advertise:  settings.Server.Advertise,
		CertPath:   certPath,
		KeyPath:    keyPath,
		CaptureDir: captureDir,
	}, settings.NewMockDirectory())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// locationsCmd prints the directory's locations once
var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List the locations a directory offers",
	Example: `  nameloc locations
  nameloc locations --api http://10.0.0.5:8080`,
	Args: cobra.NoArgs,
	RunE: runLocations,
}

func runLocations(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := logging.Initialize(settings.Log.Level); err != nil {
		return err
	}
	defer logging.Sync()

	p := ui.NewPrinter(cmd.OutOrStdout())

	dir, label, closeDir, err := openDirectory(cmd.Context(), settings)
	if err != nil {
		p.PrintFailure("Could not reach directory", err, directoryTips(settings))
		return errReported
	}
	defer closeDir()

	p.PrintHeader("Locations", cmd.CommandPath(), ui.D("Directory", label))

	start := time.Now()
	locations, err := dir.Locations(cmd.Context())
	if err != nil {
		p.PrintFailure(form.LocationsFailedPrefix, err, directoryTips(settings))
		return errReported
	}

	if len(locations) == 0 {
		p.PrintWarning(form.NoLocationsMessage, ui.D("Elapsed", time.Since(start).Round(time.Millisecond).String()))
		return nil
	}

	details := make([]ui.Detail, 0, len(locations)+1)
	for i, loc := range locations {
		details = append(details, ui.D(strconv.Itoa(i+1), string(loc)))
	}
	details = append(details, ui.D("Elapsed", time.Since(start).Round(time.Millisecond).String()))

	p.PrintSuccess(fmt.Sprintf("%d location(s)", len(locations)), details...)
	return nil
}

// checkCmd asks the directory about a single name
var checkCmd = &cobra.Command{
	Use:   "check NAME",
	Short: "Check whether a name is available",
	Example: `  nameloc check alice
  nameloc check "invalid name"`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	name := args[0]
	if name == "" {
		return errors.New("name must not be empty")
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := logging.Initialize(settings.Log.Level); err != nil {
		return err
	}
	defer logging.Sync()

	p := ui.NewPrinter(cmd.OutOrStdout())

	dir, label, closeDir, err := openDirectory(cmd.Context(), settings)
	if err != nil {
		p.PrintFailure("Could not reach directory", err, directoryTips(settings))
		return errReported
	}
	defer closeDir()

	p.PrintHeader("Name Check", cmd.CommandPath()+" "+name, ui.D("Directory", label))

	start := time.Now()
	valid, err := dir.CheckName(cmd.Context(), name)
	elapsed := time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		p.PrintFailure(form.CheckFailedMessage, err, directoryTips(settings))
		return errReported
	}

	if !valid {
		p.PrintWarning(form.TakenMessage, ui.D("Name", name), ui.D("Elapsed", elapsed))
		return nil
	}
	p.PrintSuccess("Name available", ui.D("Name", name), ui.D("Elapsed", elapsed))
	return nil
}

var scanTimeout time.Duration

// scanCmd lists directory servers advertised via mDNS
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for directory servers on the network",
	Long: `Scan for directory servers using mDNS/DNS-SD discovery.

Servers started with 'nameloc serve --advertise' announce themselves as
` + discovery.ServiceType + `.`,
	Example: `  # Scan for 3 seconds (default)
  nameloc scan

  # Longer scan for slow networks
  nameloc scan --timeout 10s`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "Scan timeout")
}

func runScan(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := logging.Initialize(settings.Log.Level); err != nil {
		return err
	}
	defer logging.Sync()

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Directory Scan", cmd.CommandPath(),
		ui.D("Service", discovery.ServiceType),
		ui.D("Timeout", scanTimeout.String()),
	)

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout

	services, err := scanner.Scan(cmd.Context())
	if err != nil {
		p.PrintFailure("Scan failed", err, nil)
		return errReported
	}

	if len(services) == 0 {
		p.PrintFailure("No directory servers found", nil, []string{
			"Start a server with 'nameloc serve --advertise'",
			"Check that multicast traffic is allowed on this network",
			"Try increasing --timeout for slower networks",
		})
		return errReported
	}

	details := make([]ui.Detail, 0, len(services))
	for _, svc := range services {
		value := svc.BaseURL()
		if v := svc.GetMetadata("version"); v != "" {
			value += " (" + v + ")"
		}
		details = append(details, ui.D(svc.Instance, value))
	}

	p.PrintSuccess(fmt.Sprintf("Found %d directory server(s)", len(services)), details...)
	p.Println(fmt.Sprintf("  Use '%s --api <url>' to open the form against one", rootCmd.Name()))
	return nil
}

// configCmd manages the settings file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var forceInit bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file without asking")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())

	if _, err := os.Stat(path); err == nil && !forceInit {
		confirmed := p.Confirm(cmd.InOrStdin(), "Overwrite configuration", []string{
			path + " already exists",
			"Every setting in it will be reset to its default",
		})
		if !confirmed {
			return nil
		}
	}

	if err := config.Defaults().Save(path); err != nil {
		p.PrintFailure("Could not write configuration", err, nil)
		return errReported
	}

	p.PrintSuccess("Configuration written",
		ui.D("Path", path),
		ui.D("Directory", describeDefaultDirectory()),
	)
	return nil
}

func describeDefaultDirectory() string {
	d := config.Defaults()
	return fmt.Sprintf("built-in mock (%s)", strings.Join(d.Mock.Locations, ", "))
}

