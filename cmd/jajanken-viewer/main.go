package main

import (
	"flag"
	"fmt"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"github.com/ayusman/jajanken/internal/app"
	"github.com/ayusman/jajanken/internal/config"
	"github.com/ayusman/jajanken/internal/log"
	"github.com/ayusman/jajanken/internal/store"
	"github.com/ayusman/jajanken/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "jajanken-viewer:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
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

	ui.New(fyneapp.NewWithID("io.github.ayusman.jajanken"), a).Run()
	return nil
}
