package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/term"

	"ssh-vanity/internal/config"
	"ssh-vanity/internal/domain"
	"ssh-vanity/internal/export"
	"ssh-vanity/internal/jobs"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML run file (default config.yaml or config.yml)")
		keywords    = flag.String("keywords", "", "Comma separated keywords, overrides the run file")
		fields      = flag.String("fields", "", "Comma separated fields to search, overrides the run file")
		allKeywords = flag.Bool("all-keywords", false, "Require every keyword to match")
		allFields   = flag.Bool("all-fields", false, "Require every field to match")
		threads     = flag.Int("threads", 0, "Number of workers (default logical CPUs)")
		saveTo      = flag.String("save-to", "", "Folder to write id_ed25519 and id_ed25519.pub to")
		verbose     = flag.Bool("verbose", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	file, err := config.LoadFile(*configPath)
	if err != nil {
		if !errors.Is(err, config.ErrNoConfigFile) || *keywords == "" {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			flag.PrintDefaults()
			os.Exit(2)
		}
		file = config.DefaultFile()
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "keywords":
			file.Keywords = config.ParseKeywords(*keywords)
		case "fields":
			file.Search.Fields = nil
			for _, name := range config.ParseKeywords(*fields) {
				file.Search.Fields = append(file.Search.Fields, domain.Field(name))
			}
		case "all-keywords":
			file.Search.Matching.AllKeywords = *allKeywords
		case "all-fields":
			file.Search.Matching.AllFields = *allFields
		case "threads":
			file.Runtime.Threads = *threads
		case "save-to":
			file.Output.SaveTo = *saveTo
		}
	})

	fmt.Println(file.Overview())
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, file, logger))
}

// run drives one search and returns the process exit code.
func run(ctx context.Context, file config.File, logger *slog.Logger) int {
	coordinator := jobs.NewCoordinator(jobs.Options{Logger: logger})

	events := make(chan jobs.Event, 64)
	quit := make(chan struct{})
	stopForwarding := sync.OnceFunc(func() { close(quit) })
	defer stopForwarding()
	unsubscribe := coordinator.Subscribe(forwardTo(events, quit))
	defer unsubscribe()

	if _, err := coordinator.Start(file.JobConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	for {
		select {
		case <-ctx.Done():
			// Nothing reads events from here on; Stop notifies synchronously.
			stopForwarding()
			coordinator.Stop()
			clearLine(interactive)
			summary(coordinator.Stats())
			fmt.Println("Stopped.")
			return 130
		case ev := <-events:
			switch ev.Type {
			case jobs.EventTypeStats:
				if interactive && ev.Stats != nil {
					progress(*ev.Stats)
				}
			case jobs.EventTypeResult:
				clearLine(interactive)
				summary(coordinator.Stats())
				return found(*ev.Result, file.SaveDir())
			case jobs.EventTypeError:
				clearLine(interactive)
				fmt.Fprintf(os.Stderr, "Error: %s\n", ev.Message)
				return 1
			}
		}
	}
}

// forwardTo queues coordinator events for the main loop. Stats are dropped
// when the queue is full since the next sample replaces them; other events
// wait for room until quit is closed.
func forwardTo(events chan<- jobs.Event, quit <-chan struct{}) jobs.ObserverFunc {
	return func(ev jobs.Event) {
		select {
		case events <- ev:
			return
		default:
		}
		if ev.Type == jobs.EventTypeStats {
			return
		}
		select {
		case events <- ev:
		case <-quit:
		}
	}
}

func found(pair domain.KeyPair, dir string) int {
	fmt.Println("Found a match!")
	fmt.Println()
	fmt.Println(strings.TrimSpace(pair.PublicKey))
	fmt.Println()

	res, err := export.NewExporter().Save(dir, pair)
	if err != nil {
		log.Printf("save keys: %v", err)
		fmt.Println(strings.TrimSpace(pair.PrivateKey))
		return 1
	}
	fmt.Printf("Saved keys to %s\n", res.Dir)
	return 0
}

func progress(stats domain.Stats) {
	fmt.Printf("\r%s | %d keys | %.0f keys/s | ETA %s   ",
		jobs.FormatElapsed(stats.Elapsed),
		stats.KeysGenerated,
		stats.KeysPerSecond,
		jobs.FormatETA(stats.ETA),
	)
}

func summary(stats domain.Stats) {
	fmt.Printf("Generated %d keys in %s\n", stats.KeysGenerated, jobs.FormatElapsed(stats.Elapsed))
}

func clearLine(interactive bool) {
	if interactive {
		fmt.Print("\r\033[K")
	}
}
