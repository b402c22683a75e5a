// Package cli wires configuration, the model gateway, and the content
// client into the wpsearch command.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dthomason/wpsearch/pkg/config"
	"github.com/dthomason/wpsearch/pkg/logging"
	"github.com/dthomason/wpsearch/pkg/model"
	"github.com/dthomason/wpsearch/pkg/search"
	"github.com/dthomason/wpsearch/pkg/terminal"
	"github.com/dthomason/wpsearch/pkg/wordpress"
)

var (
	cfgFile    string
	queryText  string
	maxResults int
	verbose    bool

	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "wpsearch",
	Short: "AI-powered WordPress content search",
	Long: `wpsearch answers natural-language questions about a WordPress site.
A model decides whether to search, the REST API supplies the content,
and the model analyzes what came back. When no model is reachable the
tool degrades to a plain content listing.

Example usage:
  wpsearch -q "articles about wine pairings"
  wpsearch -q "compliance changes" -m 3
  wpsearch                        # interactive session`,
	SilenceUsage: true,
	RunE:         run,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersion records the build version for --version and the banner.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.wpsearch/config.yaml)")
	rootCmd.Flags().StringVarP(&queryText, "query", "q", "", "run one search and exit")
	rootCmd.Flags().IntVarP(&maxResults, "max-results", "m", 0, "maximum results per search (default from config)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "mirror structured logs to stderr")
}

// app bundles the wired components for one CLI session.
type app struct {
	cfg     *config.Config
	out     *terminal.Writer
	logger  *logging.Logger
	gateway *model.Gateway
	content *wordpress.Client
	engine  *search.Engine
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Close()

	if queryText != "" {
		a.runQuery(ctx, queryText)
		return nil
	}

	a.out.DisplayWelcome(version)
	if !a.probeConnections(ctx) {
		return fmt.Errorf("cannot reach the WordPress content API")
	}
	return a.runInteractive(ctx, os.Stdin)
}

func newApp() (*app, error) {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFromPath(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Verbose = true
	}

	logger, err := logging.NewLogger(cfg.LogDir(), logging.NewSessionID())
	if err != nil {
		// Logging is diagnostic only; a read-only home dir should not
		// keep searches from running.
		logger = logging.Discard()
	}
	if cfg.Logging.Verbose {
		logger.SetMinLevel(logging.LevelDebug)
		logger.SetConsole(os.Stderr)
	}

	client := model.NewClientWithOptions(cfg.AI.APIKey, cfg.AI.BaseURL, model.ClientOptions{
		Timeout:            cfg.Search.RequestTimeout,
		NetworkLogsEnabled: cfg.Logging.NetworkLogs,
		NetworkLogDir:      cfg.LogDir(),
	})
	gateway := model.NewGateway(client, cfg.Search.MaxResults, logger)

	content := wordpress.NewClient(cfg.WordPress.APIURL, cfg.WordPress.Username, cfg.WordPress.Password, wordpress.ClientOptions{
		Timeout: cfg.Search.RequestTimeout,
		Logger:  logger,
	})

	return &app{
		cfg:     cfg,
		out:     terminal.New(),
		logger:  logger,
		gateway: gateway,
		content: content,
		engine:  search.NewEngine(gateway, content, cfg.ModelCascade(), cfg.Search.MaxResults, logger),
	}, nil
}

// probeConnections checks both upstreams at startup. The content API is
// required; a dead model only degrades the experience.
func (a *app) probeConnections(ctx context.Context) bool {
	contentOK := a.content.TestConnectivity(ctx)
	modelOK := a.gateway.Ping(ctx, a.cfg.AI.Model)
	a.out.DisplayConnectionStatus(contentOK, modelOK, a.cfg.AI.Model)
	return contentOK
}

// runQuery executes one search with a progress spinner.
func (a *app) runQuery(ctx context.Context, query string) {
	spinner := terminal.NewSpinner("searching")
	spinner.Start()
	result := a.engine.Search(ctx, query, maxResults)
	spinner.Stop()

	a.out.DisplayResult(result)
}
