package app

import (
	"context"
	"os"
	"syscall"

	"github.com/oklog/run"
)

// App runs a group of services. When one of them returns, every other one
// is interrupted and Run returns the first error.
type App struct {
	services []Service
	runner   *run.Group
	signals  []os.Signal
}

// NewApp creates an empty App.
func NewApp() *App {
	return &App{
		services: make([]Service, 0),
		runner:   &run.Group{},
	}
}

// WithService adds s to the group.
func (a *App) WithService(s Service) *App {
	a.services = append(a.services, s)
	return a
}

// WithSignals stops the group on any of signals, SIGINT and SIGTERM when
// none are given.
func (a *App) WithSignals(signals ...os.Signal) *App {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	a.signals = signals
	return a
}

// Run blocks until the first service returns.
func (a *App) Run(ctx context.Context) error {
	if len(a.signals) > 0 {
		a.runner.Add(run.SignalHandler(ctx, a.signals...))
	}
	for _, service := range a.services {
		a.runner.Add(actor(ctx, service))
	}

	return a.runner.Run()
}

// IsSignal reports whether err is the result of a received stop signal.
func IsSignal(err error) bool {
	_, ok := err.(run.SignalError)
	if ok {
		return true
	}
	_, ok = err.(*run.SignalError)
	return ok
}
