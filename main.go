package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/9seconds/promptrelay/relaylib"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

const (
	version = "0.1.0"

	serverReadHeaderTimeout = 10 * time.Second
	serverShutdownTimeout   = 30 * time.Second
)

var (
	app = kingpin.New(
		"promptrelay",
		"LLM relay with geolocation enrichment and usage analytics")

	debug = app.Flag("debug", "Run in debug mode.").
		Short('d').
		Envar("PROMPTRELAY_DEBUG").
		Bool()
	envFile = app.Flag("env-file", "Path to the file with environment variables.").
		Envar("PROMPTRELAY_ENV_FILE").
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

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			kingpin.Fatalf("cannot load env file: %v", err)
		}
	}

	conf, err := parseConfig(*configPath)
	if err != nil {
		kingpin.Fatalf("cannot parse config: %v", err)
	}

	log := newLogger(*debug, conf.GetLogFile())

	ctx, cancel := makeRootContext()
	defer cancel()

	if err := run(ctx, conf, log); err != nil {
		log.serviceLog.Fatal().Err(err).Msg("Service has failed")
	}
}

func run(ctx context.Context, conf *config, log *logger) error {
	clock, err := relaylib.NewClock(conf.GetTimezone(), nil)
	if err != nil {
		return err
	}

	classifier, err := relaylib.NewNetworkClassifier(conf.GetPrivateNetworks())
	if err != nil {
		return err
	}

	geoProviders, err := makeGeoProviders(conf)
	if err != nil {
		return err
	}

	defer closeGeoProviders(geoProviders)

	llmClient, err := makeLLMClient(ctx, conf.GetLLM())
	if err != nil {
		return err
	}

	resolver := relaylib.NewGeoResolver(geoProviders,
		classifier,
		log,
		clock,
		conf.GetGeoLookupTimeout())

	relay, err := relaylib.NewRelay(relaylib.RelayOpts{
		Resolver:         resolver,
		Client:           llmClient,
		Logger:           log,
		Clock:            clock,
		UsageLogCapacity: conf.GetUsageLogCapacity(),
		WorkerPoolSize:   conf.GetWorkerPoolSize(),
	})
	if err != nil {
		return err
	}

	defer relay.Shutdown()

	var protect func(http.Handler) http.Handler

	if token := conf.GetAccessToken(); token != "" {
		protect = newBearerAuthMiddleware(token)
	} else {
		log.serviceLog.Warn().Msg("Access token is not set, authentication is disabled")
	}

	handler := relaylib.NewHTTPHandler(relay, protect)
	handler = cors.AllowAll().Handler(handler)
	handler = log.Middleware(handler)

	srv := &http.Server{
		Addr:              conf.GetListen(),
		Handler:           handler,
		ReadHeaderTimeout: serverReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()

		srv.Shutdown(shutdownCtx) // nolint: errcheck
	}()

	log.serviceLog.Info().
		Str("listen", conf.GetListen()).
		Str("llm", llmClient.Name()).
		Int("geo_providers", len(geoProviders)).
		Msg("Service has started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.serviceLog.Info().Msg("Service has stopped")

	return nil
}
