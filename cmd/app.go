package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/safeserve/safeserve-go/pkg/client"
	"github.com/safeserve/safeserve-go/pkg/config"
	"github.com/safeserve/safeserve-go/pkg/credentials"
	"github.com/safeserve/safeserve-go/pkg/encryption"
	"github.com/safeserve/safeserve-go/pkg/logger"
)

var (
	configFile   string
	baseURL      string
	outputFormat string
	profile      string
	verbose      bool
)

// AddGlobalFlags registers the flags shared by every command on root
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default $HOME/.safeserve/config.yaml)")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "SafeServe backend URL")
	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format: table, json or yaml")
	root.PersistentFlags().StringVar(&profile, "profile", "", "Credential profile to use")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// flagKeys maps config keys to the global flags overriding them
var flagKeys = map[string]string{
	"base_url":      "base-url",
	"output":        "output",
	"store.profile": "profile",
}

// app carries what a command needs to talk to the backend
type app struct {
	cfg    *config.Config
	client *client.Client
	store  credentials.Store
	logger *slog.Logger
	out    io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	v := viper.New()
	for key, name := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	enc := encryption.NewService(ctx, cfg.Encryption, log)
	store, err := credentials.NewStore(ctx, cfg.Store, enc)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	opts := []client.Option{
		client.WithLogger(log),
		client.WithRequestIDs(cfg.RequestIDs),
	}
	if cfg.RateLimit.RPS > 0 {
		opts = append(opts, client.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	c, err := client.New(cfg.ClientConfig(), store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{cfg: cfg, client: c, store: store, logger: log, out: cmd.OutOrStdout()}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close credential store", slog.String("error", err.Error()))
	}
}

// withApp adapts a command body that needs an app into a cobra RunE
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}

// render writes v in the configured format. table draws the human readable form.
func (a *app) render(v any, table func(w io.Writer)) error {
	switch a.cfg.Output {
	case config.OutputJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		// Round trip through JSON so field names follow the json tags
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(a.out)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

// Explain turns an error into the message shown to the user
func Explain(err error) string {
	var apiErr *client.Error
	isAPIErr := errors.As(err, &apiErr)

	switch {
	case client.IsAuthExpired(err):
		// A rejected login is not a session that ended
		if isAPIErr && apiErr.Path == client.LoginPath && apiErr.Detail() != "" {
			return fmt.Sprintf("login failed: %s", apiErr.Detail())
		}
		return "session expired, run `safeserve login`"
	case client.IsNetwork(err):
		return fmt.Sprintf("cannot reach the SafeServe backend: %v", err)
	}

	if isAPIErr && apiErr.Kind == client.KindInvalidInput {
		return fmt.Sprintf("invalid input: %v", apiErr.Err)
	}
	return err.Error()
}
