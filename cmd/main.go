package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pdfshrink/internal/infrastructure/logging"
	"pdfshrink/internal/interface/controllers"
	"pdfshrink/internal/presentation/tui"
)

var (
	configPath string
	targetKB   float64

	batchSource  string
	batchTarget  string
	batchReplace bool

	serveAddr string
)

var rootCmd = &cobra.Command{
	Use:   "pdfshrink",
	Short: "Reduce PDF file size with size-tiered profiles",
	Long: `Selects a compression profile from the file size, strips metadata,
scales pages and re-serializes the document, then refines until the target
size is reached or the iteration budget runs out.
Without a subcommand the interactive batch UI is started.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive batch compression of a directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

var compressCmd = &cobra.Command{
	Use:   "compress <input.pdf> [output.pdf]",
	Short: "Compress a single PDF file",
	Long:  `Without an output path the result is written next to the input as <name>_compressed.pdf.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(configPath)
		if err != nil {
			return err
		}
		defer app.Close()

		output := ""
		if len(args) == 2 {
			output = args[1]
		}

		logger := app.consoleLogger(cmd.ErrOrStderr())
		cli := controllers.NewCLIController(app.newCompressor(app.config, logger), nil, cmd.OutOrStdout())
		return cli.HandleSingleFile(cmd.Context(), args[0], output, targetKB)
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <size-bytes|file.pdf>",
	Short: "Show the compression profile selected for a size or a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(configPath)
		if err != nil {
			return err
		}
		defer app.Close()

		logger := app.consoleLogger(cmd.ErrOrStderr())
		cli := controllers.NewCLIController(app.newCompressor(app.config, logger), nil, cmd.OutOrStdout())
		return cli.HandleProfile(args[0], targetKB)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Compress every PDF in the source directory without the UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(configPath)
		if err != nil {
			return err
		}
		defer app.Close()

		cfg := *app.config
		if cmd.Flags().Changed("source") {
			cfg.Scanner.SourceDirectory = batchSource
		}
		if cmd.Flags().Changed("target") {
			cfg.Scanner.TargetDirectory = batchTarget
		}
		if cmd.Flags().Changed("replace") {
			cfg.Scanner.ReplaceOriginal = batchReplace
		}
		if cmd.Flags().Changed("target-kb") {
			cfg.Compression.DefaultTargetKB = targetKB
		}

		logger := app.consoleLogger(cmd.ErrOrStderr())
		cli := controllers.NewCLIController(nil, app.newBatch(&cfg, logger), cmd.OutOrStdout())
		return cli.HandleBatch(cmd.Context(), &cfg)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP compression API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(configPath)
		if err != nil {
			return err
		}
		defer app.Close()

		if cmd.Flags().Changed("addr") {
			app.config.Server.Address = serveAddr
		}

		logger := app.consoleLogger(cmd.ErrOrStderr())
		controller := controllers.NewHTTPController(
			app.newCompressor(app.config, logger),
			app.history,
			logger,
			app.config.Server,
		)

		return serve(cmd.Context(), &http.Server{
			Addr:              app.config.Server.Address,
			Handler:           controller.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}, func(format string, args ...interface{}) { logger.Info(format, args...) })
	},
}

// serve работает до отмены ctx и затем корректно останавливает сервер
func serve(ctx context.Context, server *http.Server, logf func(string, ...interface{})) error {
	errCh := make(chan error, 1)
	go func() {
		logf("Сервер слушает %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logf("Остановка сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	return nil
}

// runTUI запускает интерактивный интерфейс пакетной обработки
func runTUI(ctx context.Context) error {
	app, err := newApplication(configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	tuiManager := tui.NewManager(app.configRepo, app.configPath, app.config)
	tuiManager.SetHistory(app.history)
	tuiManager.Initialize()
	defer tuiManager.Cleanup()

	// Логи видны в окне журнала и пишутся в файл
	logger := tui.NewUILogger(logging.NewMultiLogger(app.fileLogger), tuiManager)

	processor := NewApplicationProcessor(ctx, app, tuiManager, logger)
	defer processor.Shutdown()

	tuiManager.SetOnStartProcessing(processor.StartProcessing)

	if app.config.Compression.AutoStart {
		go processor.StartProcessing()
	}

	if err := tuiManager.Run(); err != nil {
		return fmt.Errorf("ошибка запуска TUI: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration")

	compressCmd.Flags().Float64Var(&targetKB, "target-kb", 0, "Target size in KB (0 - from profile)")
	profileCmd.Flags().Float64Var(&targetKB, "target-kb", 0, "Target size in KB (0 - from profile)")

	batchCmd.Flags().StringVar(&batchSource, "source", "", "Source directory (overrides config)")
	batchCmd.Flags().StringVar(&batchTarget, "target", "", "Target directory (overrides config)")
	batchCmd.Flags().BoolVar(&batchReplace, "replace", false, "Replace original files")
	batchCmd.Flags().Float64Var(&targetKB, "target-kb", 0, "Target size in KB (0 - from profile)")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")

	rootCmd.AddCommand(tuiCmd, compressCmd, profileCmd, batchCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
