package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/gesturefall/internal/app"
	"github.com/ayusman/gesturefall/internal/config"
	"github.com/ayusman/gesturefall/internal/logging"
	"github.com/ayusman/gesturefall/internal/render"
	"github.com/ayusman/gesturefall/internal/server"
	"github.com/ayusman/gesturefall/internal/store"
	"github.com/ayusman/gesturefall/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to gesturefall.yaml")
	flag.Parse()

	fmt.Println("Gesturefall - webcam gesture game")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal("failed to load configuration", err, logging.Fields{"path": *configPath})
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logging.Fatal("failed to create data directory", err, logging.Fields{"dir": cfg.DataDir})
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		logging.Fatal("failed to initialize store", err, logging.Fields{"path": cfg.DatabasePath()})
	}
	defer st.Close()

	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir(cfg.DataDir)
	}
	webDir := cfg.Server.StaticDir
	if webDir != "" {
		logging.Info("serving static files", logging.Fields{"dir": webDir})
	}

	a := app.New(app.Config{Settings: cfg, Store: st})
	if m, err := a.LoadLatestModel(); err == nil {
		logging.Info("loaded saved model", logging.Fields{"id": m.ID, "accuracy": m.Accuracy})
	} else if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, app.ErrNotTrainable) {
		logging.Warn("failed to load saved model", err, nil)
	}

	if err := a.Start(); err != nil {
		// The UI still works for training import and saved models.
		logging.Warn("camera unavailable, predictions stay disabled", err, nil)
	}
	defer a.Stop()

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Controller: a,
		Events:     a,
		Frames:     a,
	}).HTTPServer(cfg.Server.Addr)

	go func() {
		logging.Info("starting server", logging.Fields{"addr": cfg.Server.Addr, "ui": string(cfg.UI)})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server failed", err, logging.Fields{"addr": cfg.Server.Addr})
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.UI {
	case config.UIWindow:
		w := render.NewWindow(a, cfg.Game.Width, cfg.Game.Height)
		go func() {
			<-ctx.Done()
			// ebiten has no external close; exit once the server is down.
			shutdown(srv)
			a.Stop()
			os.Exit(0)
		}()
		if err := render.Run(w, "Gesturefall"); err != nil {
			logging.Error("window closed with error", err, nil)
		}

	case config.UITray:
		t := tray.New()
		t.OnToggle(a.SetEnabled)
		t.OnRetry(a.Retry)
		t.OnOpenUI(func() { openBrowser(browserURL(cfg.Server.Addr)) })
		t.OnQuit(stop)

		updates, cancel := a.Subscribe()
		defer cancel()
		go t.Watch(updates)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()

	default:
		<-ctx.Done()
	}

	logging.Info("shutting down", nil)
	shutdown(srv)
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("server shutdown", err, nil)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <data dir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}

// browserURL turns a listen address such as ":8080" into a local URL.
func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logging.Warn("failed to open browser", err, logging.Fields{"url": url})
		return
	}
	go cmd.Wait()
}
