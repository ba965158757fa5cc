package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"parkd/internal/capture"
	"parkd/internal/config"
	"parkd/internal/detect"
	"parkd/internal/httpapi"
	"parkd/internal/manager"
	"parkd/internal/provision"
	"parkd/internal/store"
)

// Fixed remote location of the parking detection model.
const defaultModelURL = "https://www.dropbox.com/scl/fi/8n60aqre52ix3gp65t3v0/best.onnx?rlkey=1jniqjxlctut2qopgagsr6lkm&st=ftgl9dsj&dl=1"

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated flag value, trimming blanks.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func buildRootCmd() *cobra.Command {
	var (
		configPath  string
		cfg         config.Config
		corsOrigins string
		corsMethods string
		corsHeaders string
	)

	root := &cobra.Command{
		Use:           "parkd",
		Short:         "Parking occupancy capture and detection daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", envDefault("PARKD_CONFIG", ""), "Optional config file (.toml/.yaml/.json)")
	pf.StringVar(&cfg.Addr, "addr", envDefault("PARKD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	pf.StringVar(&cfg.ModelPath, "model-path", envDefault("PARKD_MODEL_PATH", "~/.parkd/models/best.onnx"), "Local path of the ONNX model artifact")
	pf.StringVar(&cfg.ModelURL, "model-url", envDefault("PARKD_MODEL_URL", defaultModelURL), "Remote URL the model is fetched from on first use")
	pf.StringVar(&cfg.Backend, "backend", envDefault("PARKD_BACKEND", "dnn"), "Detector backend: dnn|ort")
	pf.StringVar(&cfg.OrtLibrary, "ort-library", envDefault("PARKD_ORT_LIBRARY", ""), "onnxruntime shared library path (ort backend)")
	pf.Float64Var(&cfg.Confidence, "confidence", 0, "Detection confidence threshold (default 0.25)")
	pf.StringVar(&cfg.DBPath, "db-path", envDefault("PARKD_DB_PATH", "~/.parkd/parkd.db"), "SQLite database path")
	pf.StringVar(&cfg.LogLevel, "log-level", envDefault("PARKD_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	pf.BoolVar(&cfg.CORSEnabled, "cors", os.Getenv("PARKD_CORS") == "1", "Enable CORS handling")
	pf.StringVar(&corsOrigins, "cors-origins", envDefault("PARKD_CORS_ORIGINS", ""), "Comma-separated allowed CORS origins")
	pf.StringVar(&corsMethods, "cors-methods", envDefault("PARKD_CORS_METHODS", ""), "Comma-separated allowed CORS methods")
	pf.StringVar(&corsHeaders, "cors-headers", envDefault("PARKD_CORS_HEADERS", ""), "Comma-separated allowed CORS headers")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// File config fills anything the flags left unset.
		if configPath != "" {
			fileCfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			mergeConfig(&cfg, fileCfg, cmd)
		}
		// CSV flags override any file-provided lists when set.
		if v := splitCSV(corsOrigins); v != nil {
			cfg.CORSAllowedOrigins = v
		}
		if v := splitCSV(corsMethods); v != nil {
			cfg.CORSAllowedMethods = v
		}
		if v := splitCSV(corsHeaders); v != nil {
			cfg.CORSAllowedHeaders = v
		}
		setupLogging(cfg.LogLevel)
		return nil
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}

	analyze := &cobra.Command{
		Use:   "analyze <image-file>",
		Short: "Run one detection pass over an image file and print JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cfg, args[0])
		},
	}

	snapshot := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture one frame from the best available camera and print JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cfg)
		},
	}

	root.AddCommand(serve, analyze, snapshot)
	// bare `parkd` serves, matching habit from similar daemons
	root.RunE = serve.RunE
	return root
}

// mergeConfig overlays file values onto cfg for flags the user did not set.
func mergeConfig(cfg *config.Config, file config.Config, cmd *cobra.Command) {
	changed := func(name string) bool {
		f := cmd.InheritedFlags().Lookup(name)
		if f == nil {
			f = cmd.Flags().Lookup(name)
		}
		return f != nil && f.Changed
	}
	if !changed("addr") && file.Addr != "" {
		cfg.Addr = file.Addr
	}
	if !changed("model-path") && file.ModelPath != "" {
		cfg.ModelPath = file.ModelPath
	}
	if !changed("model-url") && file.ModelURL != "" {
		cfg.ModelURL = file.ModelURL
	}
	if !changed("backend") && file.Backend != "" {
		cfg.Backend = file.Backend
	}
	if !changed("ort-library") && file.OrtLibrary != "" {
		cfg.OrtLibrary = file.OrtLibrary
	}
	if !changed("confidence") && file.Confidence > 0 {
		cfg.Confidence = file.Confidence
	}
	if !changed("db-path") && file.DBPath != "" {
		cfg.DBPath = file.DBPath
	}
	if !changed("log-level") && file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	cfg.CaptureDevices = file.CaptureDevices
	cfg.WebcamDevices = file.WebcamDevices
	cfg.MaxBodyMB = file.MaxBodyMB
	if !changed("cors") && file.CORSEnabled {
		cfg.CORSEnabled = true
	}
	cfg.CORSAllowedOrigins = file.CORSAllowedOrigins
	cfg.CORSAllowedMethods = file.CORSAllowedMethods
	cfg.CORSAllowedHeaders = file.CORSAllowedHeaders
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if isatty() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
}

func isatty() bool {
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func buildEngine(cfg config.Config) *detect.Engine {
	prov := provision.New(provision.Config{URL: cfg.ModelURL, Path: cfg.ModelPath})
	return detect.NewEngine(prov, detect.Config{
		Backend:    cfg.Backend,
		OrtLibrary: cfg.OrtLibrary,
		Confidence: cfg.Confidence,
	})
}

func runServe(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	engine := buildEngine(cfg)
	defer engine.Close()
	orch := capture.Assemble(ctx, capture.Options{
		WebcamDevices:  cfg.WebcamDevices,
		CaptureDevices: cfg.CaptureDevices,
	})
	mgr := manager.New(manager.Config{ModelPath: cfg.ModelPath}, orch, engine, st)

	httpapi.SetLogger(log.Logger)
	httpapi.SetBaseContext(ctx)
	if cfg.MaxBodyMB > 0 {
		httpapi.SetMaxBodyBytes(int64(cfg.MaxBodyMB) << 20)
	}
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(mgr)}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("backend", cfg.Backend).Msg("parkd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func runAnalyze(cfg config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	engine := buildEngine(cfg)
	defer engine.Close()
	mgr := manager.New(manager.Config{ModelPath: cfg.ModelPath}, noCamera{}, engine, nil)

	resp, err := mgr.Analyze(context.Background(), data)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func runSnapshot(cfg config.Config) error {
	ctx := context.Background()
	engine := buildEngine(cfg)
	defer engine.Close()
	orch := capture.Assemble(ctx, capture.Options{
		WebcamDevices:  cfg.WebcamDevices,
		CaptureDevices: cfg.CaptureDevices,
	})
	mgr := manager.New(manager.Config{ModelPath: cfg.ModelPath}, orch, engine, nil)

	resp, err := mgr.Snapshot(ctx)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// noCamera satisfies manager.Capturer for one-shot analyze runs.
type noCamera struct{}

func (noCamera) Capture(ctx context.Context) ([]byte, string, error) {
	return nil, "", fmt.Errorf("capture not supported in analyze mode")
}
func (noCamera) Available(ctx context.Context) bool { return false }
func (noCamera) Adapters() []string                 { return nil }
