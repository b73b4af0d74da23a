package providers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"arxivmon/internal/structures"
)

type TypeEnum uint8

const (
	TypeApp TypeEnum = iota
	TypeFetch
	TypeGet
	TypePost
)

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

// GetLogTypeByRequestType maps an HTTP method to the log stream the
// request belongs to.
func GetLogTypeByRequestType(method string) TypeEnum {
	if method == http.MethodPost {
		return TypePost
	}
	return TypeGet
}

// LogProvider writes app, fetch and access events to separate files under
// the configured log directory. GET and POST requests share access.log.
type LogProvider struct {
	loggers map[TypeEnum]zerolog.Logger
	files   []*os.File
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, err
	}

	mode := os.FileMode(conf.Logger.Mode)
	open := func(name string) (*os.File, error) {
		return os.OpenFile(filepath.Join(conf.Logger.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, mode)
	}

	appFile, err := open("app.log")
	if err != nil {
		return nil, err
	}
	fetchFile, err := open("fetch.log")
	if err != nil {
		appFile.Close()
		return nil, err
	}
	accessFile, err := open("access.log")
	if err != nil {
		appFile.Close()
		fetchFile.Close()
		return nil, err
	}

	build := func(w io.Writer, stream string) zerolog.Logger {
		if conf.Debug {
			w = zerolog.MultiLevelWriter(w, zerolog.ConsoleWriter{Out: os.Stderr})
		}
		return zerolog.New(w).Level(level).With().Timestamp().Str("stream", stream).Logger()
	}

	return &LogProvider{
		loggers: map[TypeEnum]zerolog.Logger{
			TypeApp:   build(appFile, "app"),
			TypeFetch: build(fetchFile, "fetch"),
			TypeGet:   build(accessFile, "get"),
			TypePost:  build(accessFile, "post"),
		},
		files: []*os.File{appFile, fetchFile, accessFile},
	}, nil
}

func (l *LogProvider) logger(t TypeEnum) zerolog.Logger {
	if lg, ok := l.loggers[t]; ok {
		return lg
	}
	return l.loggers[TypeApp]
}

func (l *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Error().Msgf(format, args...)
}

func (l *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Warn().Msgf(format, args...)
}

func (l *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Debug().Msgf(format, args...)
}

func (l *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Info().Msgf(format, args...)
}

func (l *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Fatal().Msgf(format, args...)
}

func (l *LogProvider) Close() {
	for _, f := range l.files {
		_ = f.Close()
	}
}
