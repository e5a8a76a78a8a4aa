package main

import (
	"os"

	"golang.org/x/term"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/logger"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
)

// Seams replaced by tests.
var (
	parseConfigFunc = config.ParseConfig
	newLoggerFunc   = logger.New
	newClientFunc   = newClient
	isTerminalFunc  = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
)

func newClient(creds config.Credentials, log *logger.Logger) (*ovhapi.Client, error) {
	return ovhapi.New(ovhapi.Credentials{
		Endpoint:          creds.Endpoint,
		ApplicationKey:    creds.ApplicationKey,
		ApplicationSecret: creds.ApplicationSecret,
		ConsumerKey:       creds.ConsumerKey,
	}, log)
}

func logLevel(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "info"
}
