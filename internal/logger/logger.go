package logger

import (
	"log/slog"
	"os"

	slogotel "github.com/remychantenay/slog-otel"
)

var LogLevel = new(slog.LevelVar)

var jsonHandler = slog.NewJSONHandler(
	os.Stderr,
	&slog.HandlerOptions{AddSource: true, Level: LogLevel},
)
var sloghandler = slogotel.NewOtelHandler(slogotel.WithNoTraceEvents(true))
var Handler = sloghandler(jsonHandler)
var Logger = slog.New(Handler)

// InitSlog routes the default logger through the trace-aware handler.
// The level starts at Info; --debug and config raise it afterwards.
func InitSlog() {
	slog.SetDefault(Logger)
	LogLevel.Set(slog.LevelInfo)
}
