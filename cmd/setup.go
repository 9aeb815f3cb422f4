package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/yunx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config file from the embedded template unless one already exists.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
		return r.writePlain("Config already exists at %s\n", configPath)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Run 'yunx setup cookie --curl-file request.sh' to save your session cookie\n")
	r.writePlain("2. Run 'yunx setup database' to create the local cache\n")
	return nil
}

// SetupCookie extracts the Cookie header from a browser cURL command and saves it
// to the configured cookie path.
func (r *Runner) SetupCookie(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	data := []byte(curlCmd)
	if curlFile != "" {
		var err error
		if data, err = os.ReadFile(curlFile); err != nil {
			return fmt.Errorf("failed to read cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	}

	cookie, err := shared.ParseCookie(data)
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}
	if cookie == "" {
		return fmt.Errorf("%w: no cookie found", shared.ErrMissingCredentials)
	}

	if outputPath == "" {
		outputPath = r.config.Netease.CookiePath
	}
	if outputPath == "" {
		return fmt.Errorf("%w: no cookie path configured, pass --output", shared.ErrMissingArgument)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(cookie+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}

	r.logger.Info("cookie saved", "path", outputPath, "length", len(cookie))
	return r.writePlain("✓ Session cookie saved to %s\n", outputPath)
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Driver != shared.DriverSQLite {
		return fmt.Errorf("%w: migrations apply to the %s driver only", shared.ErrInvalidConfig, shared.DriverSQLite)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if _, err := r.openDatabase(ctx, true); err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupStatus lists embedded migrations and whether each has been applied.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx, false)
	if err != nil {
		return err
	}

	status, err := shared.ListMigrations(ctx, db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations: " + r.config.Database.Path)
	for _, s := range status {
		mark := "pending"
		if s.Applied {
			mark = "applied"
		}
		r.writePlain("%04d  %-28s %s\n", s.Version, s.Name, mark)
	}
	return nil
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx, false)
	if err != nil {
		return err
	}

	if err := shared.RollbackMigration(ctx, db); err != nil {
		return err
	}

	r.logger.Info("rolled back migration", "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back the latest migration\n")
}
