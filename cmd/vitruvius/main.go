package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/ayusman/vitruvius/internal/app"
	"github.com/ayusman/vitruvius/internal/config"
	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/hook"
	"github.com/ayusman/vitruvius/internal/logging"
	"github.com/ayusman/vitruvius/internal/publish"
	"github.com/ayusman/vitruvius/internal/sensor"
	"github.com/ayusman/vitruvius/internal/server"
	"github.com/ayusman/vitruvius/internal/store"
	"github.com/ayusman/vitruvius/internal/tray"
)

const defaultPublishTimeout = 2 * time.Second

func main() {
	configDir := pflag.StringP("config", "c", "", "directory containing vitruvius.yaml or vitruvius.json")
	noTray := pflag.Bool("no-tray", false, "run without the system tray")
	broker := pflag.String("broker", "", "MQTT broker URL, overrides the config file")
	pflag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *noTray {
		cfg.DisableTray = true
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}

	logCloser, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	log.Info().Msg("Vitruvius - Body Gesture Publisher")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create data directory")
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer st.Close()

	// A nil *PoseSource must not end up inside the interfaces below
	var source sensor.Source
	var images server.ImageSource
	if poseSource, err := newSource(cfg); err != nil {
		log.Error().Err(err).Msg("pose service not available, recognition disabled")
	} else {
		source = poseSource
		images = poseSource
	}

	hooks := hook.NewManager(cfg.HooksDir)
	if err := hooks.Discover(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.HooksDir).Msg("failed to scan hooks")
	}

	publisher := newPublisher(cfg, hooks)
	defer publisher.Close()

	application := app.New(app.Config{
		Store:          st,
		Source:         source,
		Publisher:      publisher,
		Gestures:       gestureConfig(cfg),
		FPS:            cfg.FPS,
		PublishJoints:  cfg.MQTT.PublishJoints,
		JointRate:      cfg.MQTT.JointRate,
		PublishTimeout: publishTimeout(cfg),
		Retention:      cfg.Retention,
	})
	if err := application.LoadTemplates(); err != nil {
		log.Error().Err(err).Msg("failed to load templates")
	}
	if err := application.Start(); err != nil {
		// Keep serving the API so templates can still be managed
		log.Error().Err(err).Msg("failed to start recognition")
	}

	webDir := findWebDir(cfg)
	if webDir != "" {
		log.Info().Str("dir", webDir).Msg("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       application,
		Images:    images,
		Hooks:     hooks,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
		errCh <- srv.ListenAndServe(cfg.ListenAddr)
	}()

	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			log.Info().Msg("shutting down")
			application.Stop()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("server shutdown")
			}
		})
	}
	defer shutdown()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	wait := func() {
		select {
		case <-sigChan:
		case err := <-errCh:
			if err != nil {
				log.Error().Err(err).Msg("server failed")
			}
		}
	}

	if cfg.DisableTray {
		wait()
		return
	}

	t := tray.New(application.IsEnabled())
	t.OnToggle(application.SetEnabled)
	application.OnEnabledChanged(t.SetEnabled)
	t.OnDashboard(func() {
		if err := openBrowser(dashboardURL(cfg.ListenAddr)); err != nil {
			log.Warn().Err(err).Msg("failed to open browser")
		}
	})
	t.OnQuit(shutdown)
	application.OnRecognized(func(e gesture.Event) {
		t.SetLastGesture(e)
	})

	done := make(chan struct{})
	defer close(done)
	go trackTray(t, application, done)
	go func() {
		wait()
		t.Quit()
	}()

	t.Run()
}

// newPublisher sends gestures to the broker, or only logs them without
// one, and always runs the hooks. Hooks found by a later rescan are used
// for the next gesture.
func newPublisher(cfg config.Config, hooks *hook.Manager) publish.Publisher {
	hookPublisher := hook.NewPublisher(hooks, hook.NewExecutor(cfg.HookTimeout))
	if n := len(hooks.List()); n > 0 {
		log.Info().Int("count", n).Str("dir", hooks.Dir()).Msg("gesture hooks loaded")
	}

	if cfg.MQTT.Broker == "" {
		log.Info().Msg("no broker configured, gestures are only logged")
		return publish.Multi{publish.LogPublisher{}, hookPublisher}
	}

	p := publish.NewMQTTPublisher(publish.Config{
		Broker:         cfg.MQTT.Broker,
		Topic:          cfg.MQTT.Topic,
		JointTopic:     cfg.MQTT.JointTopic,
		ClientID:       cfg.MQTT.ClientID,
		QoS:            byte(cfg.MQTT.QoS),
		ConnectTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Connect(ctx); err != nil {
		log.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("broker unreachable, retrying in background")
	}
	return publish.Multi{p, hookPublisher}
}

// newSource builds the camera and pose service pipeline. The camera is
// opened later by App.Start.
func newSource(cfg config.Config) (*sensor.PoseSource, error) {
	processConfig := sensor.DefaultProcessConfig(cfg.PoseScript)
	if cfg.PoseCommand != "" {
		processConfig.Command = cfg.PoseCommand
	}
	estimator, err := sensor.NewProcessEstimator(processConfig)
	if err != nil {
		return nil, err
	}
	camera := sensor.NewCamera(cfg.CameraID)
	camera.SetFPS(cfg.FPS)
	return sensor.NewPoseSource(camera, estimator, sensor.DefaultPoseConfig()), nil
}

// publishTimeout bounds one gesture publish. Hooks run inside it, so it
// leaves room for a hook that uses its whole timeout.
func publishTimeout(cfg config.Config) time.Duration {
	timeout := cfg.HookTimeout
	if timeout <= 0 {
		timeout = hook.DefaultTimeout
	}
	return max(defaultPublishTimeout, timeout+time.Second)
}

func gestureConfig(cfg config.Config) gesture.Config {
	return gesture.Config{
		Window:              cfg.Gestures.Window,
		MinFrames:           cfg.Gestures.MinFrames,
		Cooldown:            cfg.Gestures.Cooldown,
		JoinedHandsDistance: cfg.Gestures.JoinedHandsDistance,
	}
}

// trackTray mirrors the tracked body into the tray menu once per second.
func trackTray(t *tray.Tray, a *app.App, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			body, ok := a.LatestBody()
			t.SetTracking(body.TrackingID, ok)
		}
	}
}

func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir returns the configured static directory, or searches "web",
// "../web", "../../web" and <dataDir>/web. Returns "" if none exists.
func findWebDir(cfg config.Config) string {
	if cfg.StaticDir != "" {
		return cfg.StaticDir
	}

	candidates := []string{"web", "../web", "../../web", filepath.Join(cfg.DataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	return ""
}
