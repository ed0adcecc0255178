package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ssh-vanity/internal/config"
	"ssh-vanity/internal/diagnostics"
	"ssh-vanity/internal/export"
	"ssh-vanity/internal/httpapi"
	"ssh-vanity/internal/jobs"
)

func main() {
	var (
		addr     = flag.String("addr", "0.0.0.0:8080", "listen address")
		settings = flag.String("settings", "", "settings file (default ~/.ssh-vanity/settings.json)")
		origins  = flag.String("allow-origins", "*", "comma separated CORS origins")
	)
	flag.Parse()

	path := *settings
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("resolve user home: %v", err)
		}
		path = filepath.Join(homeDir, ".ssh-vanity", "settings.json")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	coordinator := jobs.NewCoordinator(jobs.Options{Logger: logger})
	handler := httpapi.NewHandler(
		coordinator,
		config.NewJSONStore(path),
		export.NewExporter(),
		diagnostics.NewChecker(),
	)

	router := httpapi.NewRouter(handler, strings.Split(*origins, ","))
	if err := router.Run(*addr); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
