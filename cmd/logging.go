package cmd

import (
	"os"

	logging "github.com/op/go-logging"
)

var logFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{module} | %{level:.6s} %{color:reset} %{message}`,
)

var logBackend = logging.AddModuleLevel(
	logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), logFormat),
)

// setLevel logs at INFO, or DEBUG when verbose.
func setLevel(verbose bool) {
	level := logging.INFO
	if verbose {
		level = logging.DEBUG
	}
	logBackend.SetLevel(level, "")
}

func init() {
	setLevel(false)
	logging.SetBackend(logBackend)
}
