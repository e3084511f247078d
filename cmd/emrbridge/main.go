// Command emrbridge is the EMR page-detection and import bridge daemon.
//
// Usage:
//
//	emrbridge -config emrbridge.yaml              # full bridge from YAML config
//	emrbridge -url https://clinic.promptemr.com/  # quick bridge, stdout surface
//	emrbridge -classify <url>                     # classify one URL and exit
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/parable-health/emrbridge/emrpage"
	"github.com/parable-health/emrbridge/emrwatch"
	"github.com/parable-health/emrbridge/importer"
	"github.com/parable-health/emrbridge/relay"
)

func main() {
	configPath := flag.String("config", "", "path to emrbridge.yaml config file")
	hostURL := flag.String("url", "", "watch a single EMR URL (stdout surface)")
	classifyURL := flag.String("classify", "", "classify a URL and exit")
	tenantID := flag.String("tenant", "", "tenant ID (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *classifyURL != "" {
		page := emrpage.Classify(*classifyURL)
		json.NewEncoder(os.Stdout).Encode(page)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *hostURL, *tenantID); err != nil {
		logger.Error("emrbridge: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, hostURL, tenantID string) error {
	var cfg *emrwatch.Config
	switch {
	case configPath != "":
		c, err := emrwatch.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	case hostURL != "":
		cfg = &emrwatch.Config{}
		cfg.Host.URL = hostURL
		cfg.Scrape.Notices = true
		cfg.ApplyDefaults()
	default:
		fmt.Fprintln(os.Stderr, "usage: emrbridge -config <file> | -url <url> | -classify <url>")
		os.Exit(1)
	}

	if tenantID != "" {
		cfg.Host.TenantID = tenantID
	}

	surfaces, err := buildSurfaces(cfg, logger)
	if err != nil {
		return err
	}

	w := emrwatch.New(cfg, logger, surfaces...)
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()
	logger.Info("emrbridge: shutting down")
	return nil
}

// buildSurfaces assembles the relay surfaces from configuration. With no
// surfaces and no importer configured, detections go to stdout.
func buildSurfaces(cfg *emrwatch.Config, logger *slog.Logger) ([]relay.Surface, error) {
	var surfaces []relay.Surface

	for _, sc := range cfg.Relay.Surfaces {
		switch sc.Type {
		case "stdout":
			surfaces = append(surfaces, relay.NewStdout(nil))
		case "webhook":
			if sc.URL == "" {
				return nil, fmt.Errorf("webhook surface requires url")
			}
			surfaces = append(surfaces, relay.NewWebhook(sc.URL, relay.WithWebhookLogger(logger)))
		default:
			return nil, fmt.Errorf("unknown surface type %q", sc.Type)
		}
	}

	if cfg.Importer.MaterializerURL != "" {
		m := importer.NewHTTPMaterializer(cfg.Importer.MaterializerURL,
			importer.WithBearerToken(cfg.Importer.BearerToken))
		tenantID := cfg.Host.TenantID
		imp := importer.New(m, func() (string, bool) { return tenantID, tenantID != "" }, logger)
		surfaces = append(surfaces, imp.Surface())

		if cfg.Importer.Listen != "" {
			go func() {
				logger.Info("emrbridge: import API listening", "addr", cfg.Importer.Listen)
				if err := http.ListenAndServe(cfg.Importer.Listen, importer.Routes(imp, logger)); err != nil {
					logger.Error("emrbridge: import API stopped", "error", err)
				}
			}()
		}
	}

	if len(surfaces) == 0 {
		surfaces = append(surfaces, relay.NewStdout(nil))
	}

	return surfaces, nil
}
