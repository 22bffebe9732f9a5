package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/9seconds/ipsleuth/api"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

const (
	serverReadHeaderTimeout = 10 * time.Second
	serverShutdownTimeout   = 30 * time.Second
)

var (
	version = "dev"

	app = kingpin.New(
		"ipsleuth",
		"IP geolocation service with segment cache and ip2location fallbacks")

	debug = app.Flag("debug", "Run in debug mode.").
		Short('d').
		Envar("IPSLEUTH_DEBUG").
		Bool()
	envFile = app.Flag("env-file", "Path to the .env file.").
		Envar("IPSLEUTH_ENV_FILE").
		String()
	configPath = app.Arg("config-path", "Path to the config.").
			Required().
			ExistingFile()
)

func init() {
	app.Version(version)
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	rootLogger := newRootLogger(os.Stderr, *debug)

	if err := loadEnv(*envFile); err != nil {
		rootLogger.Fatal().Err(err).Msg("Cannot load environment file")
	}

	conf, err := parseConfig(*configPath)
	if err != nil {
		rootLogger.Fatal().Err(err).Msg("Cannot parse config")
	}

	ctx, cancel := makeRootContext()
	defer cancel()

	resolver, err := makeResolver(ctx, conf, newLogger(rootLogger))
	if err != nil {
		rootLogger.Fatal().Err(err).Msg("Cannot create resolver")
	}

	defer resolver.Shutdown()

	var handler http.Handler = api.NewHandler(resolver)

	if conf.BasicAuth.Enabled() {
		handler = newBasicAuthMiddleware(handler, conf.BasicAuth.User, conf.BasicAuth.Password)
	}

	server := &http.Server{
		Addr:              conf.GetListen(),
		Handler:           accessLogMiddleware(rootLogger, handler),
		ReadHeaderTimeout: serverReadHeaderTimeout,
	}

	go shutdownOnDone(ctx, server, rootLogger)

	rootLogger.Info().
		Str("listen", conf.GetListen()).
		Str("store", conf.Store.GetName()).
		Bool("api_key", conf.GetAPIKey() != "").
		Msg("Starting server")

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		rootLogger.Error().Err(err).Msg("Server has stopped")
	}
}

func shutdownOnDone(ctx context.Context, server *http.Server, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Cannot shutdown server gracefully")
	}
}

// loadEnv populates environment from the .env file. Variables which
// are already set are not overridden. Implicit .env in the current
// directory is optional.
func loadEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
