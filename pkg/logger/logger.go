package logger

import (
	"os"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
}

type zerologLogger struct {
	log zerolog.Logger
}

func New(level string) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return &zerologLogger{log: zl}
}

func (l *zerologLogger) Debug(msg string, args ...any) {
	withFields(l.log.Debug(), args).Msg(msg)
}

func (l *zerologLogger) Info(msg string, args ...any) {
	withFields(l.log.Info(), args).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, args ...any) {
	withFields(l.log.Warn(), args).Msg(msg)
}

func (l *zerologLogger) Error(msg string, args ...any) {
	withFields(l.log.Error(), args).Msg(msg)
}

func (l *zerologLogger) Fatal(msg string, args ...any) {
	withFields(l.log.Fatal(), args).Msg(msg)
}

// withFields раскладывает пары key-value в поля события
func withFields(ev *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	return ev
}
