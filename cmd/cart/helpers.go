package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/config"
	"github.com/Veraticus/the-cart-must-flow/internal/ingest"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/Veraticus/the-cart-must-flow/internal/service"
	"github.com/Veraticus/the-cart-must-flow/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath(viper.GetViper()))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// bindFlags binds command flags to viper keys. Binding happens when the
// command runs so subcommands sharing a key don't overwrite each other.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

// loadRun resolves a run id; zero selects the most recent run.
func loadRun(ctx context.Context, store service.Storage, id int64) (*model.MiningRun, error) {
	var (
		run *model.MiningRun
		err error
	)
	if id == 0 {
		run, err = store.GetLatestRun(ctx)
	} else {
		run, err = store.GetRun(ctx, id)
	}
	if errors.Is(err, common.ErrNotFound) {
		if id == 0 {
			return nil, common.NewUserError("no mining runs stored yet, run 'cart arl mine --save' first", err)
		}
		return nil, common.NewUserError(fmt.Sprintf("mining run %d does not exist", id), err)
	}
	return run, err
}

// loadRunRules returns a run together with its rules and the product catalog.
func loadRunRules(ctx context.Context, store service.Storage, id int64) (*model.MiningRun, []model.Rule, model.Catalog, error) {
	run, err := loadRun(ctx, store, id)
	if err != nil {
		return nil, nil, nil, err
	}
	rules, err := store.GetRules(ctx, run.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}
	catalog, err := store.GetCatalog(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return run, rules, catalog, nil
}

// readFile opens path behind a progress bar and decodes it with read.
func readFile[T any](path, description string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := ingest.OpenWithProgress(path, description)
	if err != nil {
		return zero, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Debug("Failed to close input", "path", path, "error", cerr)
		}
	}()

	out, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		var err error
		configFile, err = config.File("config.yaml")
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}

// openBrowser tries to open the URL in the default browser.
func openBrowser(url string) {
	slog.Info("Opening browser for authentication", "url", url)

	var err error
	switch goos := runtime.GOOS; goos {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec,forbidigo
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec,forbidigo
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec,forbidigo
	}
	if err != nil {
		slog.Debug("Failed to open browser", "error", err)
	}
}

// defaultWorkers counts support with one goroutine per available CPU.
func defaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}
