// Package netlog wraps zerolog into the pair of loggers the netcode cores
// use: one per component (server, client), emitting structured fields
// instead of formatted strings.
package netlog

import (
    "io"
    "os"

    "github.com/rs/zerolog"
)

// New builds a component-tagged logger writing to w (os.Stdout if nil).
func New(component string, w io.Writer) zerolog.Logger {
    if w == nil {
        w = os.Stdout
    }
    return zerolog.New(w).With().Timestamp().Str("component", component).Logger()
}

// NewConsole builds a human-readable console logger, used by the CLI
// binaries when a terminal is attached.
func NewConsole(component string) zerolog.Logger {
    cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
    return zerolog.New(cw).With().Timestamp().Str("component", component).Logger()
}
