package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	tiramisu "github.com/snow884/tiramisu-wallet-client"
	"github.com/snow884/tiramisu-wallet-client/internal"
	"github.com/snow884/tiramisu-wallet-client/internal/api"
	"github.com/snow884/tiramisu-wallet-client/internal/network"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "tiramisu",
	Short:         "Command line client of the Tiramisu wallet",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command selected by the arguments. Flags start from
// their defaults on every call.
func Execute(ctx context.Context) error {
	resetFlags(rootCmd)
	return rootCmd.ExecuteContext(ctx)
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			log.Warnf("[Flags] Reset %s: %v", f.Name, err)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "configuration file")
}

// session holds what a wallet command needs.
type session struct {
	cfg     *internal.Configuration
	client  *tiramisu.Client
	metrics *api.Server
}

func (s *session) Close() {
	if s.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.metrics.Shutdown(ctx); err != nil {
		log.Warnf("[Metrics] Shutdown: %v", err)
	}
}

// openSession loads the configuration and authenticates against the wallet.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := internal.Load(configFile)
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	authMode, err := tiramisu.ParseAuthMode(cfg.Wallet.AuthMode)
	if err != nil {
		return nil, err
	}
	httpClient, err := network.GetClient(cfg.Network)
	if err != nil {
		return nil, err
	}
	opts := []tiramisu.Option{
		tiramisu.WithNetwork(cfg.Wallet.Network),
		tiramisu.WithServerURL(cfg.Wallet.ServerUrl),
		tiramisu.WithAuthMode(authMode),
		tiramisu.WithHTTPClient(httpClient),
		tiramisu.WithPolling(
			tiramisu.MaxAttempts(cfg.Polling.MaxAttempts),
			tiramisu.Interval(cfg.Polling.Interval),
		),
	}
	if cfg.Wallet.Register {
		opts = append(opts, tiramisu.WithRegistration())
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		opts = append(opts, tiramisu.WithRateLimit(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst))
	}

	s := &session{cfg: cfg}
	if cfg.Metrics.Listen != "" {
		m, err := tiramisu.NewMetrics(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tiramisu.WithMetrics(m))
		s.metrics = api.NewServer(cfg.Metrics.Listen)
		s.metrics.AppendRoute("/metrics", promhttp.Handler().ServeHTTP, http.MethodGet)
		s.metrics.ListenAndServe()
	}

	s.client, err = tiramisu.NewClient(ctx, cfg.Wallet.Username, cfg.Wallet.Password, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// withSession wraps a wallet command so it runs with an open session.
func withSession(run func(cmd *cobra.Command, args []string, c *tiramisu.Client) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return run(cmd, args, s.client)
	}
}

// printRaw writes a backend object as indented JSON.
func printRaw(raw json.RawMessage) error {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(os.Stdout)
	return err
}
