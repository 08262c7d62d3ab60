package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/yigit/scholarship/internal/app/migrations"
	"github.com/yigit/scholarship/internal/bootstrap"
	"github.com/yigit/scholarship/internal/db"
	"github.com/yigit/scholarship/internal/pkg/logger"
)

const usage = `Usage: migrator [flags] <up|down|status|version>

Flags:
`

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to the YAML configuration file")
	envFiles := pflag.StringSlice("env-file", []string{".env"}, "env files to load before reading configuration")
	pflag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(pflag.Arg(0), *configPath, *envFiles); err != nil {
		logger.Error().Err(err).Str("command", pflag.Arg(0)).Msg("Migration command failed")
		os.Exit(1)
	}
}

func run(command, configPath string, envFiles []string) error {
	ctx := context.Background()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath, envFiles)
	if err != nil {
		return err
	}
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	migrator, err := migrations.NewMigrator(database.Pool, lgr)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch command {
	case "up":
		return migrator.Up(ctx)
	case "down":
		return migrator.Down(ctx)
	case "status":
		return migrator.Status(ctx)
	case "version":
		version, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(version)
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
