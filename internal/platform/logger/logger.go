package logger

import (
	"log/slog"
	"os"
)

// New returns the application logger. JSON output keeps log aggregation
// simple; handlers and services receive it by injection.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
