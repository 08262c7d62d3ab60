package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	appControllers "github.com/yigit/scholarship/internal/app/controllers"
	appMigrations "github.com/yigit/scholarship/internal/app/migrations"
	"github.com/yigit/scholarship/internal/app/models"
	appRepos "github.com/yigit/scholarship/internal/app/repositories"
	appRoutes "github.com/yigit/scholarship/internal/app/routes"
	appServices "github.com/yigit/scholarship/internal/app/services"
	"github.com/yigit/scholarship/internal/config"
	"github.com/yigit/scholarship/internal/db"
	appMiddleware "github.com/yigit/scholarship/internal/middleware"
	pkgAuth "github.com/yigit/scholarship/internal/pkg/auth"
	"github.com/yigit/scholarship/internal/pkg/filestorage"
	"github.com/yigit/scholarship/internal/pkg/helpers"
	"github.com/yigit/scholarship/internal/pkg/logger"
	"github.com/yigit/scholarship/internal/seed"
)

// multipartOverhead is the allowance for form fields and part headers on top
// of the documents of the largest submission.
const multipartOverhead = 1 << 20

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos               *appRepos.Repositories
	BlobStore           filestorage.BlobStore
	JWTService          *pkgAuth.JWTService
	AuthService         *appServices.AuthService
	RegistrationService *appServices.RegistrationService
	ApplicationService  *appServices.ApplicationService
	DocumentService     *appServices.DocumentService
	SearchService       *appServices.SearchService
	Handlers            appRoutes.Handlers
	AuthMiddleware      *appMiddleware.AuthMiddleware
	HealthChecks        map[string]appRoutes.HealthCheck
	Logger              zerolog.Logger
}

// LoadConfigAndSetupLogger loads .env files and configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string, envFiles []string) (*config.Config, zerolog.Logger, error) {
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		logger.Error().Err(err).Msg("Failed to load env files")
		return nil, zerolog.Logger{}, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and, when enabled, applies migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if !cfg.Database.AutoMigrate {
		return database, nil
	}

	migrator, err := appMigrations.NewMigrator(database.Pool, lgr.With().Str("component", "migrations").Logger())
	if err != nil {
		database.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Up(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	version, err := migrator.Version(ctx)
	if err == nil {
		lgr.Info().Int64("version", version).Msg("Database migrations successfully applied.")
	}

	return database, nil
}

// SetupBlobStore opens the configured document store and returns a health
// check for it.
func SetupBlobStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (filestorage.BlobStore, appRoutes.HealthCheck, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case config.StorageDriverGridFS:
		client, err := db.NewMongoClient(ctx, cfg.Storage.Mongo.URI)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to MongoDB")
			return nil, nil, err
		}
		opTimeout := helpers.ParseDuration(cfg.Storage.Mongo.OpTimeout, 30*time.Second)
		store := filestorage.NewGridFSStorage(client, cfg.Storage.Mongo.Database, cfg.Storage.Mongo.Bucket, opTimeout)
		lgr.Info().Str("database", cfg.Storage.Mongo.Database).Str("bucket", cfg.Storage.Mongo.Bucket).Msg("GridFS document storage configured")
		check := func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}
		return store, check, nil

	default:
		store, err := filestorage.NewLocalStorage(cfg.Storage.LocalPath)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to initialize file storage")
			return nil, nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return store, nil, nil
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, store filestorage.BlobStore, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger:       lgr,
		BlobStore:    store,
		Repos:        appRepos.NewRepositories(database),
		HealthChecks: map[string]appRoutes.HealthCheck{"database": database.Ping},
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	if err := seed.EnsureAdmin(ctx, deps.Repos.UserRepository, cfg.Admin.Username, cfg.Admin.Password, lgr); err != nil {
		// The API is still usable for students without an admin.
		lgr.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
	}

	component := logger.Component

	ingestor := appServices.NewDocumentIngestor(store, appServices.UploadPolicy{
		MaxFileSize:  cfg.Uploads.MaxFileSize,
		SniffContent: cfg.Uploads.SniffContent,
	}, component("uploads"))

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService, component("auth"))
	deps.RegistrationService = appServices.NewRegistrationService(deps.Repos.RegistrationRepository, component("registrations"))
	deps.ApplicationService = appServices.NewApplicationService(deps.Repos.ApplicationRepository, ingestor, component("applications"))
	deps.DocumentService = appServices.NewDocumentService(deps.Repos.ApplicationRepository, store, cfg.Uploads.MaxFileSize, component("documents"))
	deps.SearchService = appServices.NewSearchService(deps.Repos.ApplicationRepository, deps.Repos.RegistrationRepository, component("search"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Handlers = appRoutes.Handlers{
		Auth:         appControllers.NewAuthController(deps.AuthService, component("auth")),
		Registration: appControllers.NewRegistrationController(deps.RegistrationService, component("registrations")),
		Application:  appControllers.NewApplicationController(deps.ApplicationService, deps.DocumentService, component("applications")),
		Admin:        appControllers.NewAdminController(deps.ApplicationService, deps.SearchService, component("admin")),
	}

	return deps, nil
}

// MaxRequestBody bounds a request to the largest possible submission.
func MaxRequestBody(cfg *config.Config) int64 {
	docs := int64(len(models.ApplicationTypeSchoolFees.DocumentFields()))
	return docs*cfg.Uploads.MaxFileSize + multipartOverhead
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxMultipartMemory
	router.Use(
		appMiddleware.RequestLogger(lgr.With().Str("component", "http").Logger()),
		appMiddleware.Recovery(lgr),
		appMiddleware.BodyLimit(MaxRequestBody(cfg)),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupHealth(router, deps.HealthChecks)
	appRoutes.SetupRouter(router, deps.Handlers, deps.AuthMiddleware)

	return router
}
