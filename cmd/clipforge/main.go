package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andreazorzetto/yh/highlight"
	"github.com/hokaccha/go-prettyjson"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gopkg.in/yaml.v3"

	"github.com/clipforge/clipforge/conf"
	"github.com/clipforge/clipforge/internal/build"
	"github.com/clipforge/clipforge/internal/dependencies"
	"github.com/clipforge/clipforge/internal/log"
	"github.com/clipforge/clipforge/internal/providers"
	"github.com/clipforge/clipforge/internal/respcache"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			handleConfigCommand()
			return
		case "cache":
			handleCacheCommand()
			return
		case "generate":
			handleGenerateCommand()
			return
		case "version", "--version", "-v":
			showVersion()
			return
		case "build-info":
			showBuildInfo()
			return
		case "help", "--help", "-h":
			showHelp()
			return
		}

		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
	}

	showHelp()
}

type logger struct{}

func (l *logger) LogEvent(event fxevent.Event) {
	log.Debug(context.Background(), "fx event", log.Any("event", event))
}

// deps holds the wired infrastructure for commands that need it.
type deps struct {
	fx.In

	Cache           *respcache.Cache
	ScriptGenerator providers.ScriptGenerator
}

// withApp starts the dependency graph, runs fn and shuts the graph down,
// closing the store even when fn fails.
func withApp(fn func(ctx context.Context, d deps) error) error {
	var d deps

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &logger{}
		}),
		dependencies.Module,
		fx.Populate(&d),
	)

	ctx := context.Background()

	if err := app.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx, d)

	if err := app.Stop(ctx); err != nil {
		log.Error(ctx, "shutdown error", log.Cause(err))
	}

	return runErr
}

func handleCacheCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: clipforge cache <stats|clear|clear-expired>")
		os.Exit(1)
	}

	err := withApp(func(ctx context.Context, d deps) error {
		switch os.Args[2] {
		case "stats":
			stats, err := d.Cache.Stats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
			fmt.Printf("Valid entries:   %d\n", stats.ValidEntries)
			fmt.Printf("Expired entries: %d\n", stats.ExpiredEntries)
			fmt.Printf("Total size:      %d bytes\n", stats.TotalSizeBytes)

			return nil
		case "clear":
			removed, err := d.Cache.Clear(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Removed %d entries\n", removed)

			return nil
		case "clear-expired":
			removed, err := d.Cache.ClearExpired(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Removed %d expired entries\n", removed)

			return nil
		default:
			return fmt.Errorf("unknown cache command: %s", os.Args[2])
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleGenerateCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: clipforge generate <topic...>")
		os.Exit(1)
	}

	topic := strings.Join(os.Args[2:], " ")

	err := withApp(func(ctx context.Context, d deps) error {
		script, err := d.ScriptGenerator.GenerateScript(ctx, providers.ScriptRequest{
			Topic: topic,
		})
		if err != nil {
			return err
		}

		fmt.Println(script)

		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleConfigCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: clipforge config <preview|validate>")
		os.Exit(1)
	}

	switch os.Args[2] {
	case "preview":
		configPreview()
	case "validate":
		configValidate()
	default:
		fmt.Println("Usage: clipforge config <preview|validate>")
		os.Exit(1)
	}
}

func configPreview() {
	format := "yml"

	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--format" || os.Args[i] == "-f" {
			if i+1 < len(os.Args) {
				format = os.Args[i+1]
			}
		}
	}

	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var output string

	switch format {
	case "json":
		b, err := prettyjson.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output = string(b)
	case "yml", "yaml":
		b, err := yaml.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output, err = highlight.Highlight(bytes.NewBuffer(b))
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unsupported format: %s\n", format)
		os.Exit(1)
	}

	fmt.Println(output)
}

func configValidate() {
	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	errors := validateConfig(config)

	if len(errors) == 0 {
		fmt.Println("Configuration is valid!")
		return
	}

	fmt.Println("Configuration validation failed:")

	for _, err := range errors {
		fmt.Printf("  - %s\n", err)
	}

	os.Exit(1)
}

func validateConfig(config conf.Config) []string {
	var errors []string

	if config.Store.Dir == "" {
		errors = append(errors, "store.dir cannot be empty")
	}

	if config.HTTP.Retry.MaxAttempts < 0 {
		errors = append(errors, "http.retry.max_attempts cannot be negative")
	}

	for name, resource := range config.RateLimit.Resources {
		if resource.Capacity <= 0 {
			errors = append(errors, fmt.Sprintf("rate_limit.resources.%s.capacity must be positive", name))
		}

		if resource.RefillRate <= 0 {
			errors = append(errors, fmt.Sprintf("rate_limit.resources.%s.refill_rate must be positive", name))
		}
	}

	if config.Providers.Script.BaseURL == "" {
		errors = append(errors, "providers.script.base_url cannot be empty")
	}

	return errors
}

func showBuildInfo() {
	fmt.Println(build.GetBuildInfo())
}

func showVersion() {
	fmt.Println(build.Version)
}

func showHelp() {
	fmt.Println("ClipForge content automation")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  clipforge generate <topic>       Generate a narration script for a topic")
	fmt.Println("  clipforge cache stats            Show response cache statistics")
	fmt.Println("  clipforge cache clear            Remove all cached responses")
	fmt.Println("  clipforge cache clear-expired    Remove expired cached responses")
	fmt.Println("  clipforge config preview         Preview configuration")
	fmt.Println("  clipforge config validate        Validate configuration")
	fmt.Println("  clipforge version                Show version")
	fmt.Println("  clipforge build-info             Show build information")
	fmt.Println("  clipforge help                   Show this help message")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -f, --format FORMAT       Output format for config preview (yml, json)")
}
