package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	apihttp "diabetesapi/http"
	"diabetesapi/logging"
	"diabetesapi/ml"
	"diabetesapi/monitoring"
	"diabetesapi/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "diabetesapi",
		Short:        "Diabetes risk prediction service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the yaml config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the model and serve predictions over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			return serve(config)
		},
	}

	var inputPath string
	predictCmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one JSON payload through the pipeline and print the result",
		Long: `Reads a JSON object from --input (or stdin when --input is "-"),
validates it and predicts with the configured model, exactly as POST /predict
would. Exits non-zero when the pipeline reports a failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if inputPath != "-" {
				f, err := os.Open(inputPath)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return predictOnce(cmd.Context(), config, in, cmd.OutOrStdout())
		},
	}
	predictCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "JSON payload file")

	root.AddCommand(serveCmd, predictCmd)
	return root
}

// app is the wired service shared by both commands.
type app struct {
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	handle   *ml.Handle
	pipeline *pipeline.Pipeline
}

func newApp(config *Config, logger *zap.Logger) (*app, error) {
	metrics := monitoring.NewMetrics()

	handle, err := ml.Open(config.Model.Type, config.Model.Path)
	if err != nil {
		logger.Error("model failed to load, serving degraded",
			zap.String("type", config.Model.Type),
			zap.String("path", config.Model.Path),
			zap.Error(err))
	} else {
		logger.Info("model loaded",
			zap.String("type", config.Model.Type),
			zap.String("path", config.Model.Path))
	}
	current, _ := handle.Current()
	metrics.SetModel(current)

	cache, err := pipeline.NewCache(config.Cache.Size)
	if err != nil {
		return nil, err
	}
	adapter := pipeline.NewAdapter(handle, cache, metrics)
	p := pipeline.New(adapter, pipeline.WithLogger(logger), pipeline.WithObserver(metrics))

	return &app{logger: logger, metrics: metrics, handle: handle, pipeline: p}, nil
}

func serve(config *Config) error {
	logger, err := logging.New(config.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(config, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Model.Watch {
		watcher, err := ml.NewWatcher(a.handle, config.Model.Type, config.Model.Path, logger)
		if err != nil {
			return err
		}
		watcher.OnReload = a.metrics.ObserveReload
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("model watcher not started", zap.Error(err))
		}
		defer watcher.Stop()
	}

	server := apihttp.NewServer(config.HTTP, apihttp.Deps{
		Pipeline: a.pipeline,
		Handle:   a.handle,
		Metrics:  a.metrics,
		Logger:   logger,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	return nil
}

func predictOnce(ctx context.Context, config *Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(config, zap.NewNop())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	payload, perr := apihttp.DecodePayload(in)
	if perr != nil {
		if err := enc.Encode(apihttp.NewErrorResponse(perr)); err != nil {
			return err
		}
		return perr
	}

	result, err := a.pipeline.Run(ctx, payload)
	if err != nil {
		if !errors.As(err, &perr) {
			return err
		}
		if encErr := enc.Encode(apihttp.NewErrorResponse(perr)); encErr != nil {
			return encErr
		}
		return perr
	}
	return enc.Encode(result)
}
