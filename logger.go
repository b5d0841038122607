package main

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/9seconds/promptrelay/relaylib"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logger struct {
	lookupLog     zerolog.Logger
	completionLog zerolog.Logger
	httpLog       zerolog.Logger
	serviceLog    zerolog.Logger
}

func (l *logger) LookupError(ip, providerName string, err error) {
	l.lookupLog.Warn().Str("provider", providerName).Str("ip", ip).Err(err).Msg("")
}

func (l *logger) LookupResolved(ip, source string, info relaylib.GeoInfo) {
	l.lookupLog.Debug().
		Str("source", source).
		Str("ip", ip).
		Str("country", info.Country).
		Str("city", info.City).
		Msg("Address was resolved")
}

func (l *logger) CompletionError(ip string, err error) {
	l.completionLog.Error().Str("ip", ip).Err(err).Msg("")
}

func (l *logger) CompletionRecorded(record relaylib.UsageRecord) {
	l.completionLog.Info().
		Str("id", record.ID).
		Str("endpoint", record.Endpoint).
		Str("ip", record.ClientIP).
		Str("country", record.Country).
		Str("model", record.Model).
		Uint64("request_count", record.RequestCount).
		Int("token_usage", record.TokenUsage).
		Int64("response_time_ms", record.ResponseTimeMS).
		Msg("Completion was recorded")
}

// Middleware writes an access log entry for each request.
func (l *logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, req)

		l.httpLog.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("ip", relaylib.ClientIP(req)).
			Int("status", ww.Status()).
			Int("size", ww.BytesWritten()).
			Dur("elapsed", time.Since(started)).
			Msg("")
	})
}

func newLogger(debug bool, logFile string) *logger {
	var writer io.Writer = os.Stderr

	if logFile != "" {
		writer = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	root := zerolog.New(writer).Level(level)

	return &logger{
		lookupLog:     root.With().Timestamp().Str("event_name", "lookup").Logger(),
		completionLog: root.With().Timestamp().Str("event_name", "completion").Logger(),
		httpLog:       root.With().Timestamp().Str("event_name", "http").Logger(),
		serviceLog:    root.With().Timestamp().Str("event_name", "service").Logger(),
	}
}
