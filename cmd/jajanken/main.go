package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/jajanken/internal/app"
	"github.com/ayusman/jajanken/internal/config"
	"github.com/ayusman/jajanken/internal/log"
	"github.com/ayusman/jajanken/internal/server"
	"github.com/ayusman/jajanken/internal/store"
	"github.com/ayusman/jajanken/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	withTray := flag.Bool("tray", false, "run a system tray icon")
	autoStart := flag.Bool("capture", true, "start capturing at launch")
	flag.Parse()

	if err := run(*configPath, *addr, *withTray, *autoStart); err != nil {
		fmt.Fprintln(os.Stderr, "jajanken:", err)
		os.Exit(1)
	}
}

func run(configPath, addr string, withTray, autoStart bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	log.Init(cfg.LogLevel)

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	a, err := app.FromConfig(cfg, st)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("close app", "err", err)
		}
	}()

	webDir := cfg.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Pipeline:  a,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup failures are kept in the app status; clients retry through the API.
	if autoStart && !withTray {
		if err := a.Start(); err != nil {
			log.Warn("capture not started", "kind", app.ErrorKind(err), "err", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Addr)
	}()

	if withTray {
		t := newTray(a, cfg.Addr, stop)
		go t.Watch(ctx, a.Status, time.Second)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	} else {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newTray builds the tray shell around a. Its toggle drives capture and its
// status line follows rounds.
func newTray(a *app.App, addr string, quit func()) *tray.Tray {
	t := tray.New()
	t.OnToggle(func(capturing bool) error {
		if capturing {
			return a.Start()
		}
		a.Stop()
		return nil
	})
	t.OnOpen(func() {
		openBrowser(previewURL(addr))
	})
	t.OnQuit(quit)
	a.OnRound(t.SetRound)
	return t
}

func previewURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
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
		log.Warn("open browser", "url", url, "err", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.jajanken/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
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

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".jajanken", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
