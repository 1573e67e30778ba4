package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"GopherAR/internal/config"
	"GopherAR/internal/engine"
	"GopherAR/internal/logger"
	"GopherAR/internal/placement"
	"GopherAR/internal/telemetry"
	"GopherAR/internal/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfig   string
	flagPreset   string
	flagModel    string
	flagFont     string
	flagNoDialog bool
	flagWidth    int32
	flagHeight   int32
	flagDebug    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "gopherar",
	Short:         "Place a plant model on real surfaces",
	Long:          "GopherAR shows a plant model on a ground plane with an orbit camera. Press Enter to start an emulated AR session, aim the reticle at a surface and click to place copies of the model.",
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.NoArgs,
	RunE:          runViewer,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "YAML file overlaid on the preset")
	rootCmd.Flags().StringVar(&flagPreset, "preset", "tulsi", "base configuration preset (see 'gopherar presets')")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "model path or http(s) URL (.glb, .gltf, .obj)")
	rootCmd.Flags().StringVar(&flagFont, "font", "", "label font path or URL (default: Go Regular)")
	rootCmd.Flags().BoolVar(&flagNoDialog, "no-dialog", false, "log placement messages instead of showing a dialog")
	rootCmd.Flags().Int32Var(&flagWidth, "width", 0, "window width override")
	rootCmd.Flags().Int32Var(&flagHeight, "height", 0, "window height override")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "debug logging")

	rootCmd.AddCommand(presetsCmd)
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in configuration presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range config.PresetNames() {
			cfg, err := config.Preset(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s model=%s fov=%v lights=%d scale=%v alignment=%s\n",
				name, cfg.Model.Path, cfg.Camera.FieldOfView, cfg.Lights.Count,
				cfg.Placement.Scale, cfg.Placement.GroundAlignment)
		}
		return nil
	},
}

// loadConfig resolves preset, file and environment, then applies flags, which
// win over everything else.
func loadConfig() (config.ViewerConfig, error) {
	cfg, err := config.Load(flagPreset, flagConfig)
	if err != nil {
		return config.ViewerConfig{}, err
	}
	if flagModel != "" {
		cfg.Model.Path = flagModel
	}
	if flagFont != "" {
		cfg.Font.Path = flagFont
	}
	if flagNoDialog {
		cfg.UI.Dialogs = false
	}
	if flagWidth > 0 {
		cfg.Window.Width = flagWidth
	}
	if flagHeight > 0 {
		cfg.Window.Height = flagHeight
	}
	return cfg, cfg.Validate()
}

func runViewer(cmd *cobra.Command, _ []string) error {
	if err := logger.Init(flagDebug); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "gopherar")
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Log.Warn("Flushing traces", zap.Error(err))
		}
	}()

	var notifier placement.Notifier = ui.LogNotifier{}
	if cfg.UI.Dialogs {
		notifier = ui.DialogNotifier{}
	}

	logger.Log.Info("Starting GopherAR", zap.String("preset", cfg.Preset), zap.String("model", cfg.Model.Path))
	return engine.NewGopher(cfg, notifier).Run(ctx)
}
