package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/hrygo/sbotchat/ai/configloader"
	"github.com/hrygo/sbotchat/ai/format"
	"github.com/hrygo/sbotchat/internal/logging"
	"github.com/hrygo/sbotchat/internal/profile"
	"github.com/hrygo/sbotchat/internal/version"
	"github.com/hrygo/sbotchat/server"
	"github.com/hrygo/sbotchat/store"
	"github.com/hrygo/sbotchat/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:     "sbotchat",
		Short:   `AI response formatter for the sbotchat assistant. Turns raw model replies into safe, styled HTML.`,
		Version: version.String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Only load .env for direct binary execution (not when running as systemd service)
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := newProfile()
			logging.Setup(logging.Options{Mode: instanceProfile.Mode, Level: viper.GetString("log-level")})
			if err := instanceProfile.Validate(); err != nil {
				panic(err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				cancel()
				slog.Error("failed to create db driver", "error", err)
				return
			}

			storeInstance := store.New(dbDriver, instanceProfile)
			if err := storeInstance.Migrate(ctx); err != nil {
				cancel()
				slog.Error("failed to migrate", "error", err)
				return
			}

			s, err := server.NewServer(instanceProfile, storeInstance)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					slog.Error("failed to start server", "error", err)
					cancel()
					return
				}
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

	formatCmd = &cobra.Command{
		Use:   "format [file]",
		Short: "Format one response from a file or stdin and print the HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			flags := cmd.Flags()
			opts := formatOptions{}
			opts.hrAction, _ = flags.GetBool("hr-action")
			opts.apiCalled, _ = flags.GetString("api-called")
			opts.messageType, _ = flags.GetString("message-type")
			opts.fallback, _ = flags.GetBool("fallback")

			p := newProfile()
			logging.Setup(logging.Options{Mode: p.Mode, Level: viper.GetString("log-level")})
			if p.Data == "" {
				p.Data = "."
			}
			return runFormat(cmd.Context(), in, cmd.OutOrStdout(), p, opts)
		},
	}
)

type formatOptions struct {
	hrAction    bool
	apiCalled   string
	messageType string
	fallback    bool
}

// runFormat formats everything read from in. The analyzer uses the instance
// credentials from the profile; there is no per-user configuration here.
func runFormat(ctx context.Context, in io.Reader, out io.Writer, p *profile.Profile, opts formatOptions) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req := &format.FormatRequest{
		Content:     string(raw),
		MessageType: opts.messageType,
	}
	if opts.hrAction || opts.apiCalled != "" {
		req.Data = &format.SideData{HRAction: opts.hrAction, APICalled: opts.apiCalled}
	}

	var formatter format.Formatter
	if opts.fallback {
		formatter = format.NewGFMRenderer()
	} else {
		o, err := newOrchestrator(p)
		if err != nil {
			return err
		}
		formatter = o
	}

	res := formatter.Format(ctx, req)
	if _, err := fmt.Fprintln(out, res.HTML); err != nil {
		return err
	}
	if res.Failed {
		return errors.New("formatting failed")
	}
	return nil
}

func newOrchestrator(p *profile.Profile) (*format.Orchestrator, error) {
	settings := format.NotConfigured()
	if p.IsAnalyzerConfigured() {
		settings = format.Configured(p.LLMProvider, p.LLMAPIKey, p.LLMModel, p.LLMBaseURL).
			WithTimeout(time.Duration(p.LLMTimeout) * time.Second)
	}

	var opts []format.Option
	if p.LabelsFile != "" {
		labels, err := configloader.NewLoader(p.Data).LoadLabels(p.LabelsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, format.WithLabels(labels))
	}
	if rule := strings.TrimSpace(p.EligibilityRule); rule != "" {
		e, err := format.NewCELEligibility(rule)
		if err != nil {
			return nil, err
		}
		opts = append(opts, format.WithEligibilityRule(e))
	}
	if p.HighlightStyle != "" {
		opts = append(opts, format.WithRenderer(format.NewRenderer(format.WithHighlighter(format.NewChromaHighlighter(p.HighlightStyle)))))
	}
	if p.AnalyzerRPS > 0 {
		opts = append(opts, format.WithRateLimiter(rate.NewLimiter(rate.Limit(p.AnalyzerRPS), max(p.AnalyzerBurst, 1))))
	}
	return format.NewOrchestrator(settings, opts...), nil
}

func newProfile() *profile.Profile {
	p := &profile.Profile{
		Mode:            viper.GetString("mode"),
		Addr:            viper.GetString("addr"),
		Port:            viper.GetInt("port"),
		Data:            viper.GetString("data"),
		Driver:          viper.GetString("driver"),
		DSN:             viper.GetString("dsn"),
		LLMProvider:     viper.GetString("llm-provider"),
		LLMModel:        viper.GetString("llm-model"),
		LLMBaseURL:      viper.GetString("llm-base-url"),
		LabelsFile:      viper.GetString("labels"),
		EligibilityRule: viper.GetString("eligibility-rule"),
		HighlightStyle:  viper.GetString("highlight-style"),
		Version:         version.String(),
	}
	p.FromEnv()
	return p
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8069)

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8069, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver (sqlite, postgres)")
	flags.String("dsn", "", "database source name(aka. DSN)")
	flags.String("llm-provider", "", "scenario analyzer provider (deepseek, openai, anthropic, ...)")
	flags.String("llm-model", "", "scenario analyzer model")
	flags.String("llm-base-url", "", "scenario analyzer endpoint")
	flags.String("labels", "", "YAML file with label overrides, relative to the data directory")
	flags.String("eligibility-rule", "", "CEL expression deciding which replies are analyzed")
	flags.String("highlight-style", "", "chroma style for fenced code; empty disables highlighting")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "llm-provider", "llm-model", "llm-base-url", "labels", "eligibility-rule", "highlight-style", "log-level"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("sbotchat")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	formatCmd.Flags().Bool("hr-action", false, "treat the content as an HR action response")
	formatCmd.Flags().String("api-called", "", "HR API identifier shown on the action card")
	formatCmd.Flags().String("message-type", format.DefaultMessageType, "message type written to the container")
	formatCmd.Flags().Bool("fallback", false, "render full GitHub Flavored Markdown without classification")
	rootCmd.AddCommand(formatCmd)
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("sbotchat formatter %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	if profile.IsAnalyzerConfigured() {
		fmt.Printf("Scenario analyzer: %s (%s)\n", profile.LLMProvider, profile.LLMModel)
	} else {
		fmt.Println("Scenario analyzer: per-user keys only")
	}

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
