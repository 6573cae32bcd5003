package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SafetyApp/internal/app"
	"SafetyApp/pkg/config"
	"SafetyApp/pkg/location"
	"SafetyApp/pkg/logger"
	"SafetyApp/pkg/notification"
	"SafetyApp/pkg/websocket"
)

// cliOptions 命令行参数，只有显式传入的参数才覆盖配置
type cliOptions struct {
	backendURL  string
	alertURL    string
	userID      int
	lat         float64
	lng         float64
	metricsAddr string
	contactName string
	contactTel  string
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithOptions(&cliOptions{})
}

func newRootCmdWithOptions(opts *cliOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "safetyapp",
		Short:         "Personal safety client: SOS alerts, emergency requests and contacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Listen for SOS alerts and show notifications",
		Long:  `Connect to the alert channel and notify on every alert until the server closes the connection or SIGINT arrives.`,
		RunE:  func(cmd *cobra.Command, _ []string) error { return runListen(cmd, opts) },
	}

	sosCmd := &cobra.Command{
		Use:   "sos",
		Short: "Send one emergency request with the current location",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runSOS(cmd, opts) },
	}

	saveContactCmd := &cobra.Command{
		Use:   "save-contact",
		Short: "Save an emergency contact",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runSaveContact(cmd, opts) },
	}

	fakeCallCmd := &cobra.Command{
		Use:   "fake-call",
		Short: "Show a fake incoming call notification",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runFakeCall(cmd, opts) },
	}

	rootCmd.PersistentFlags().StringVar(&opts.backendURL, "backend", "", "Backend base URL (default "+config.DefaultBackendURL+")")
	rootCmd.PersistentFlags().StringVar(&opts.alertURL, "ws", "", "Alert channel URL (default "+config.DefaultAlertURL+")")
	rootCmd.PersistentFlags().IntVar(&opts.userID, "user-id", 0, "User ID sent with requests")
	rootCmd.PersistentFlags().Float64Var(&opts.lat, "lat", 0, "Latitude reported as the current location")
	rootCmd.PersistentFlags().Float64Var(&opts.lng, "lng", 0, "Longitude reported as the current location")
	rootCmd.MarkFlagsRequiredTogether("lat", "lng")

	listenCmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	saveContactCmd.Flags().StringVar(&opts.contactName, "name", "", "Contact name")
	saveContactCmd.Flags().StringVar(&opts.contactTel, "phone", "", "Contact phone number")
	_ = saveContactCmd.MarkFlagRequired("name")
	_ = saveContactCmd.MarkFlagRequired("phone")

	rootCmd.AddCommand(listenCmd, sosCmd, saveContactCmd, fakeCallCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// resolveConfig 加载配置并用显式传入的命令行参数覆盖
func resolveConfig(cmd *cobra.Command, opts *cliOptions) (*config.Config, location.Provider, error) {
	if err := config.Load(); err != nil {
		return nil, nil, err
	}
	cfg := config.GlobalConfig

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.BackendURL = opts.backendURL
	}
	if flags.Changed("ws") {
		cfg.AlertURL = opts.alertURL
	}
	if flags.Changed("user-id") {
		cfg.UserID = opts.userID
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}

	// 经纬度必须成对出现，只给一个时不能用 0 补齐
	latSet, lngSet := flags.Changed("lat"), flags.Changed("lng")
	if latSet != lngSet {
		return nil, nil, fmt.Errorf("--lat and --lng must be given together")
	}
	var provider location.Provider
	if latSet {
		provider = location.StaticProvider{Fix: location.Fix{Lat: opts.lat, Lon: opts.lng}}
	}
	return cfg, provider, nil
}

func setup(cmd *cobra.Command, opts *cliOptions, reg prometheus.Registerer) (*app.App, error) {
	cfg, provider, err := resolveConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log, cfg.Mode); err != nil {
		return nil, err
	}

	wsCfg := websocket.LoadConfigFromEnv()
	if err := websocket.ValidateConfig(wsCfg); err != nil {
		return nil, err
	}

	var pushClient notification.PushClient
	if cfg.Push.AppKey != "" {
		pushClient = notification.NewJPushClient(cfg.Push, nil)
	}

	return app.New(app.Options{
		Config:     cfg,
		Provider:   provider,
		PushClient: pushClient,
		Registerer: reg,
		WebSocket:  wsCfg,
	})
}

func runListen(cmd *cobra.Command, opts *cliOptions) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := setup(cmd, opts, reg)
	if err != nil {
		return err
	}
	defer a.Stop()

	if addr := config.GlobalConfig.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	logger.Info("listening for alerts",
		zap.String("url", config.GlobalConfig.AlertURL),
		zap.Any("websocket", websocket.GetConfigSummary(a.WebSocketConfig())),
	)
	if err := a.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-a.Done():
		fmt.Fprintln(cmd.OutOrStdout(), "alert channel closed")
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	}
	return nil
}

func runSOS(cmd *cobra.Command, opts *cliOptions) error {
	a, err := setup(cmd, opts, nil)
	if err != nil {
		return err
	}
	if err := a.StartLocation(); err != nil {
		return err
	}
	defer a.Stop()

	resp, err := a.TriggerSOS(cmd.Context())
	if err != nil {
		return err
	}
	out, _ := json.Marshal(resp.Body)
	fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode, out)
	return nil
}

func runSaveContact(cmd *cobra.Command, opts *cliOptions) error {
	a, err := setup(cmd, opts, nil)
	if err != nil {
		return err
	}

	resp, err := a.SaveContact(cmd.Context(), opts.contactName, opts.contactTel)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode, resp.Body)
	return nil
}

func runFakeCall(cmd *cobra.Command, opts *cliOptions) error {
	a, err := setup(cmd, opts, nil)
	if err != nil {
		return err
	}
	if err := a.FakeCall(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "fake call shown")
	return nil
}
