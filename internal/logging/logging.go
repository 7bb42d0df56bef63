// Package logging configures the commonlog backend shared by the cli, the
// execution service and the history store. Program output never passes
// through here.
package logging

import (
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// Root is the prefix of every logger name
const Root = "tapec"

// Configure sets the verbosity and destination for all tapec loggers.
// An empty file logs to stderr.
func Configure(verbosity int, file string) {
	if file == "" {
		commonlog.Configure(verbosity, nil)
		return
	}
	commonlog.Configure(verbosity, &file)
}

// Get returns the logger named tapec.<name>
func Get(name string) commonlog.Logger {
	return commonlog.GetLogger(Root + "." + name)
}

// WithRequest tags every message of log with a request id
func WithRequest(log commonlog.Logger, id string) commonlog.Logger {
	return commonlog.NewKeyValueLogger(log, "request", id)
}
