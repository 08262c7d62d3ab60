package main

import (
	"context"
	"os"

	"github.com/spf13/pflag"

	"github.com/yigit/scholarship/internal/pkg/logger"
	"github.com/yigit/scholarship/internal/server"
)

// @title Scholarship Portal API
// @version 1.0
// @description API for submitting and reviewing student scholarship applications
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to the YAML configuration file")
	envFiles := pflag.StringSlice("env-file", []string{".env"}, "env files to load before reading configuration")
	pflag.Parse()

	srv, err := server.NewServer(context.Background(), server.Options{
		ConfigPath: *configPath,
		EnvFiles:   *envFiles,
	})
	if err != nil {
		// Details are logged by the setup functions.
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
