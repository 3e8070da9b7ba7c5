package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/carviewer/internal/assets"
	"github.com/Faultbox/carviewer/internal/config"
	"github.com/Faultbox/carviewer/internal/logger"
	"github.com/Faultbox/carviewer/internal/remote"
	"github.com/Faultbox/carviewer/internal/viewer"
	"github.com/Faultbox/carviewer/internal/watcher"
)

var runCmd = &cobra.Command{
	Use:   "run [model]",
	Short: "Run the frame loop with remote control and hot reload",
	Long: `Load the model and tick the viewer at the configured frame rate until
interrupted. The remote control server accepts pose, steering and exposure
commands; the config file and the model are reloaded when they change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runViewer,
}

func runViewer(cmd *cobra.Command, args []string) error {
	model := modelArg(args)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Car Viewer ===", zap.String("model", model))

	loader := assets.NewLoader()
	defer loader.Wait()

	v := viewer.New(viewer.Options{
		Renderer:    newStatsRenderer(cfg.Viewer.FPS),
		Loader:      loader,
		Settings:    viewer.SettingsFromConfig(cfg),
		FOV:         cfg.Viewer.FOV,
		Width:       cfg.Viewer.Width,
		Height:      cfg.Viewer.Height,
		InitialPose: cfg.Viewer.InitialPose,
	})
	defer v.Close()
	v.Load(ctx, model)

	if cfg.Remote.Enabled {
		srv := remote.NewServer(cfg.Remote.Addr, v, remote.WithLoad(cfg.Remote.AllowLoad))
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				logger.Error("remote server failed", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("remote shutdown", zap.Error(err))
			}
		}()
	}

	if cfg.Watch.Enabled {
		fw, err := watchFiles(ctx, v, model)
		if err != nil {
			logger.Warn("hot reload disabled", zap.Error(err))
		} else {
			defer fw.Close()
		}
	}

	frameLoop(ctx, v, cfg.Viewer.FPS)
	return nil
}

// frameLoop ticks v at fps until ctx is done. The measured wall time between
// ticks is passed as dt; the viewer clamps long stalls.
func frameLoop(ctx context.Context, v *viewer.Viewer, fps int) {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("frame loop stopped", zap.Uint64("frames", v.Frames()))
			return
		case now := <-ticker.C:
			v.Tick(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}

// watchFiles reloads settings when the config file changes and reloads the
// model when it is rewritten. Callbacks run on watcher goroutines and hand
// their work to the frame loop through Post.
func watchFiles(ctx context.Context, v *viewer.Viewer, model string) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce)
	if err != nil {
		return nil, err
	}

	if path := overrides.Path(); path != "" {
		err := fw.Watch([]string{path}, func(string) {
			reloadSettings(v)
		})
		if err != nil {
			fw.Close()
			return nil, err
		}
	}

	err = fw.Watch([]string{model}, func(string) {
		logger.Info("model changed, reloading", zap.String("model", model))
		v.Post(func() { v.Load(ctx, model) })
	})
	if err != nil {
		fw.Close()
		return nil, err
	}

	fw.Start()
	return fw, nil
}

// reloadSettings re-reads the configuration. An invalid file is rejected and
// the running settings stay in place.
func reloadSettings(v *viewer.Viewer) {
	next, err := config.Load(&overrides)
	if err != nil {
		logger.Warn("config reload rejected", zap.Error(err))
		return
	}
	s := viewer.SettingsFromConfig(next)
	v.Post(func() { v.SetSettings(s) })
	logger.Info("config reloaded", zap.String("preset", s.Lighting.Preset))
}
