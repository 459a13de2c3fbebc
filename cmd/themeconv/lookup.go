package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/foduucom/themeconv"
	"github.com/foduucom/themeconv/config"
	"github.com/foduucom/themeconv/dedup"
	"github.com/foduucom/themeconv/storage"
	"github.com/foduucom/themeconv/storage/badger"
	"github.com/foduucom/themeconv/storage/file"
	"github.com/urfave/cli/v2"
)

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Check whether an HTML fragment is already in the cache",
		ArgsUsage: "<file.html | ->",
		Action:    lookupAction,
		Flags: []cli.Flag{
			workspaceFlag(),
			backendFlag(),
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Similarity score (0-100) counted as a hit",
			},
		},
	}
}

func lookupAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("lookup needs exactly one HTML file, or - for stdin")
	}
	cfg := configFrom(c)
	if c.IsSet("workspace") {
		cfg.Storage.Workspace = c.String("workspace")
	}
	if c.IsSet("backend") {
		cfg.Storage.Backend = c.String("backend")
	}
	if c.IsSet("threshold") {
		cfg.Pipeline.Threshold = c.Float64("threshold")
	}

	html, err := readInput(c.Args().First(), c.App.Reader)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	matcher, err := dedup.NewMatcher(store, dedup.WithThreshold(cfg.Pipeline.Threshold))
	if err != nil {
		return err
	}
	match, err := matcher.Lookup(c.Context, html)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "fingerprint: %s\n", match.Fingerprint)
	if !match.Hit {
		fmt.Fprintf(w, "%s (threshold %.0f)\n", color.New(color.FgYellow).Sprint("miss"), matcher.Threshold())
		return nil
	}
	fmt.Fprintf(w, "%s %s (score %.2f)\n", color.New(color.FgGreen).Sprint("hit"), match.Record.Name, match.Score)
	return nil
}

func readInput(arg string, stdin io.Reader) (string, error) {
	if arg == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(arg)
	return string(data), err
}

// openStore opens the fingerprint store only, without the service.
func openStore(cfg config.Config) (storage.FingerprintStore, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		backend, err := badger.OpenBackend(filepath.Join(cfg.Storage.Workspace, themeconv.BadgerDir), false)
		if err != nil {
			return nil, nil, err
		}
		store, err := badger.NewFingerprintStore(backend)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		return store, func() {
			store.Close()
			backend.Close()
		}, nil
	default:
		store, err := file.OpenFingerprintStore(filepath.Join(cfg.Storage.Workspace, themeconv.FingerprintFile))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}
