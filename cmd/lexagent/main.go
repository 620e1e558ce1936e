package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/server"
	"github.com/hrygo/lexagent/store"
	"github.com/hrygo/lexagent/store/db"
)

// version is set at build time.
var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "lexagent",
	Short: `A conversational legal assistant for Indian law that answers questions and drafts documents.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogger(viper.GetString("log-level"), viper.GetString("log-format"), viper.GetString("mode"))
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := loadProfile()
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		storeInstance, err := openStore(ctx, instanceProfile)
		if err != nil {
			cancel()
			slog.Error("failed to open store", "error", err)
			os.Exit(1)
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			cancel()
			slog.Error("failed to create server", "error", err)
			os.Exit(1)
		}

		c := make(chan os.Signal, 1)
		// Trigger graceful shutdown on SIGINT or SIGTERM.
		// The default signal sent by the `kill` command is SIGTERM,
		// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		if err := s.Start(ctx); err != nil {
			cancel()
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}

		printGreetings(instanceProfile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		// Wait for CTRL-C.
		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "file")
	viper.SetDefault("port", 8000)
	viper.SetDefault("data", "./data")
	viper.SetDefault("retrieval", "chromem")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "")

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8000, "port of server")
	flags.String("data", "./data", "data directory")
	flags.String("driver", "file", `session storage driver, can be "file", "sqlite" or "postgres"`)
	flags.String("dsn", "", "database source name (sqlite file or postgres URL)")
	flags.String("retrieval", "chromem", `legal library backend, can be "chromem", "pgvector" or "none"`)
	flags.String("template-dir", "", "directory holding .docx templates (default: <data>/templates)")
	flags.String("output-dir", "", "directory for generated documents (default: <data>/output)")
	flags.String("log-level", "info", `log level, can be "debug", "info", "warn" or "error"`)
	flags.String("log-format", "", `log format, "json" or "text" (default: json in prod)`)

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "retrieval", "template-dir", "output-dir", "log-level", "log-format"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("lexagent")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(newChatCommand(), newTemplatesCommand(), newIngestCommand(), newVersionCommand())
}

// loadProfile builds the profile from flags and LEXAGENT_* variables.
func loadProfile() *profile.Profile {
	p := &profile.Profile{
		Mode:             viper.GetString("mode"),
		Addr:             viper.GetString("addr"),
		Port:             viper.GetInt("port"),
		Data:             viper.GetString("data"),
		Driver:           viper.GetString("driver"),
		DSN:              viper.GetString("dsn"),
		RetrievalBackend: viper.GetString("retrieval"),
		TemplateDir:      viper.GetString("template-dir"),
		OutputDir:        viper.GetString("output-dir"),
		Version:          version,
	}
	p.FromEnv()
	return p
}

func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	storeInstance := store.New(dbDriver, p)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return storeInstance, nil
}

func setupLogger(level, format, mode string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if format == "" {
		format = "text"
		if mode == "prod" {
			format = "json"
		}
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("lexagent %s started successfully!\n", p.Version)
	if p.IsDev() {
		fmt.Fprintf(os.Stderr, "Development mode is enabled\n")
		fmt.Fprintf(os.Stderr, "Data dir:  %s\nDriver:    %s\nTemplates: %s\nOutput:    %s\n", p.Data, p.Driver, p.TemplateDir, p.OutputDir)
	}
	if len(p.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", p.Port)
		fmt.Printf("Accessing via http://localhost:%d\n", p.Port)
	} else {
		fmt.Printf("Server running on address %s:%d\n", p.Addr, p.Port)
		fmt.Printf("Accessing via http://%s:%d\n", p.Addr, p.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
