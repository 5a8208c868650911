package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// Options controls how a logger renders. Empty Level means debug in
// development and info otherwise.
type Options struct {
	Level       string
	Development bool
	JSON        bool
	Output      io.Writer
}

// New builds a logger without touching the package-level one.
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	level := strings.ToLower(strings.TrimSpace(opts.Level))
	if level == "" {
		level = "info"
		if opts.Development {
			level = "debug"
		}
	}
	if parsed, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(parsed)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", opts.Level).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if opts.JSON || !opts.Development {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if opts.Output != nil {
		log.SetOutput(opts.Output)
	}
	return log
}

// InitLogger builds the service logger on stdout and installs it as Logger.
// LOG_FORMAT=json forces JSON in development.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	Logger = New(Options{
		Level:       logLevel,
		Development: isDevelopment,
		JSON:        strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		Output:      os.Stdout,
	})
	return Logger
}

// ForCLI logs warnings and up as text to w, or everything with verbose.
// Quiet discards all output.
func ForCLI(w io.Writer, verbose, quiet bool) *logrus.Logger {
	if quiet {
		return NewDiscardLogger()
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return New(Options{Level: level, Development: true, Output: w})
}

func NewDiscardLogger() *logrus.Logger {
	return New(Options{Output: io.Discard})
}

func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

func WithHTTPContext(method, path, userAgent string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"http_method": method,
		"http_path":   path,
		"user_agent":  userAgent,
	})
}
