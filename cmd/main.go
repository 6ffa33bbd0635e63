package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/comunidade/internal/forms"
	"github.com/sbilibin2017/comunidade/internal/handlers"
	"github.com/sbilibin2017/comunidade/internal/jwt"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/middlewares"
	"github.com/sbilibin2017/comunidade/internal/migrations"
	"github.com/sbilibin2017/comunidade/internal/passwords"
	"github.com/sbilibin2017/comunidade/internal/photos"
	"github.com/sbilibin2017/comunidade/internal/repositories"
	"github.com/sbilibin2017/comunidade/internal/services"
	"github.com/sbilibin2017/comunidade/internal/views"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

type config struct {
	AppHost  string
	AppPort  string
	LogLevel string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int

	JWTSecretKey       string
	SessionTTL         time.Duration
	SessionRememberTTL time.Duration
	CookieSecure       bool

	PhotoStorage   string
	PhotoDir       string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	KafkaBrokers []string
	KafkaTopic   string
}

func (c config) postgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDB)
}

// parseConfig loads environment variables from a file and returns the
// application, database, Redis, session, photo storage and Kafka configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string) (int, error) {
		n, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}
	getBool := func(key string) (bool, error) {
		b, err := strconv.ParseBool(getEnv(key, "false"))
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return b, nil
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "comunidade")
	if cfg.PGPort, err = getInt("POSTGRES_PORT", "5432"); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", "16"); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", "8"); err != nil {
		return
	}

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisPort, err = getInt("REDIS_PORT", "6379"); err != nil {
		return
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return
	}
	if cfg.RedisPoolSize, err = getInt("REDIS_POOL_SIZE", "10"); err != nil {
		return
	}
	if cfg.RedisMinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", "2"); err != nil {
		return
	}

	// Session config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	var ttl, rememberTTL int
	if ttl, err = getInt("SESSION_TTL_SECOND", "86400"); err != nil {
		return
	}
	if rememberTTL, err = getInt("SESSION_REMEMBER_TTL_SECOND", "2592000"); err != nil {
		return
	}
	cfg.SessionTTL = time.Duration(ttl) * time.Second
	cfg.SessionRememberTTL = time.Duration(rememberTTL) * time.Second
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE"); err != nil {
		return
	}

	// Photo storage config
	cfg.PhotoStorage = getEnv("PHOTO_STORAGE", "local")
	if cfg.PhotoStorage != "local" && cfg.PhotoStorage != "minio" {
		err = fmt.Errorf("PHOTO_STORAGE: unknown backend %q", cfg.PhotoStorage)
		return
	}
	cfg.PhotoDir = getEnv("PHOTO_DIR", "static/imagens")
	cfg.MinioEndpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	cfg.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", "minioadmin")
	cfg.MinioSecretKey = getEnv("MINIO_SECRET_KEY", "minioadmin")
	cfg.MinioBucket = getEnv("MINIO_BUCKET", "imagens")
	if cfg.MinioUseSSL, err = getBool("MINIO_USE_SSL"); err != nil {
		return
	}

	// Kafka config
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "posts")

	return
}

// app holds the wired dependencies the router needs.
type app struct {
	db           *sqlx.DB
	rdb          *redis.Client
	photos       *photos.Pipeline
	kafkaWriter  services.KafkaWriter
	jwt          *jwt.JWT
	cookieSecure bool
	sessionTTL   time.Duration
	rememberTTL  time.Duration
}

// newRouter builds the services and handlers and mounts every route.
func newRouter(a app) (http.Handler, error) {
	rd, err := views.New()
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(a.db, middlewares.GetTxFromContext)
	userWriteRepo := repositories.NewUserWriteRepository(a.db, middlewares.GetTxFromContext)
	postReadRepo := repositories.NewPostReadRepository(a.db, middlewares.GetTxFromContext)
	postWriteRepo := repositories.NewPostWriteRepository(a.db, middlewares.GetTxFromContext)
	sessionRepo := repositories.NewSessionRepository(a.rdb)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, passwords.New(passwords.DefaultCost), sessionRepo, a.jwt,
		services.WithSessionTTL(a.sessionTTL, a.rememberTTL))
	profileService := services.NewProfileService(userReadRepo, userWriteRepo, a.photos,
		services.WithAfterCommit(middlewares.AfterCommit))
	postService := services.NewPostService(postReadRepo, postWriteRepo, a.kafkaWriter)
	userService := services.NewUserService(userReadRepo)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))
	r.Use(chimiddleware.RequestSize(forms.MaxBodyBytes))

	// Served without a transaction
	r.Get("/healthz", handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"postgres": a.db.PingContext,
		"redis":    func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() },
	}))
	r.Get(views.PhotoPath+"{name}", handlers.NewPhotoHandler(a.photos))

	r.Group(func(r chi.Router) {
		r.Use(middlewares.CSRFMiddleware(a.cookieSecure))
		r.Use(middlewares.TxMiddleware(a.db))
		r.Use(middlewares.CurrentUserMiddleware(a.jwt, authService))

		// Public routes
		r.Get("/", handlers.NewHomeHandler(postService, rd))
		r.Get("/contato", handlers.NewContactHandler(rd))
		r.Get("/login", handlers.NewLoginPageHandler(rd))
		r.Post("/login", handlers.NewLoginHandler(authService, rd, a.cookieSecure))
		r.Post("/registrar", handlers.NewRegisterHandler(authService, rd))
		logout := handlers.NewLogoutHandler(authService, rd, a.cookieSecure)
		r.Get("/sair", logout)
		r.Post("/sair", logout)

		// Routes that require a signed-in user
		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireAuth)
			r.Get("/usuarios", handlers.NewUsersHandler(userService, rd))
			r.Get("/perfil", handlers.NewProfileHandler(postService, rd))
			editProfile := handlers.NewEditProfileHandler(profileService, rd)
			r.Get("/perfil/editar", editProfile)
			r.Post("/perfil/editar", editProfile)
			createPost := handlers.NewCreatePostHandler(postService, rd)
			r.Get("/post/criar", createPost)
			r.Post("/post/criar", createPost)
			post := handlers.NewPostHandler(postService, rd)
			r.Get("/post/{id}", post)
			r.Post("/post/{id}", post)
			r.Post("/post/{id}/deletar", handlers.NewDeletePostHandler(postService, rd))
		})

		r.NotFound(handlers.NewNotFoundHandler(rd))
	})

	return r, nil
}

// newPhotoStorage picks the configured photo backend.
func newPhotoStorage(ctx context.Context, cfg config) (photos.Storage, error) {
	if cfg.PhotoStorage == "minio" {
		return photos.NewMinioStorage(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	}
	return photos.NewLocalStorage(cfg.PhotoDir), nil
}

// run initializes the logger, database, Redis, photo storage, Kafka and
// HTTP server. It sets up routes and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	log := logger.Log
	defer log.Sync()
	log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	log.Infow("Connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.postgresDSN())
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)

	if err := migrations.Up(ctx, db.DB); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection error: %w", err)
	}
	defer rdb.Close()

	// Photo storage
	storage, err := newPhotoStorage(ctx, cfg)
	if err != nil {
		return err
	}
	pipeline := photos.NewPipeline(storage)
	if err := pipeline.EnsureDefault(ctx); err != nil {
		return fmt.Errorf("default photo: %w", err)
	}

	// Kafka is optional
	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		w := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
		defer w.Close()
		kafkaWriter = w
		log.Infow("Kafka writer configured", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	handler, err := newRouter(app{
		db:           db,
		rdb:          rdb,
		photos:       pipeline,
		kafkaWriter:  kafkaWriter,
		jwt:          jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey), jwt.WithExpiration(cfg.SessionTTL)),
		cookieSecure: cfg.CookieSecure,
		sessionTTL:   cfg.SessionTTL,
		rememberTTL:  cfg.SessionRememberTTL,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		log.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}
