// Package startup sequences service dependencies at boot. Dependencies
// declare what they rely on; the manager starts them in dependency order,
// retries the whole sequence with fibonacci backoff, and stops them in
// reverse on shutdown.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

type Dependency interface {
	Name() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type status int

const (
	statusPending status = iota
	statusStarted
	statusStopped
	statusFailed
)

type Manager struct {
	dependencies map[string]Dependency
	order        []string
	statuses     map[string]status
	logger       ectologger.Logger
	maxAttempts  int
}

func NewManager(logger ectologger.Logger, maxAttempts int) *Manager {
	return &Manager{
		dependencies: make(map[string]Dependency),
		statuses:     make(map[string]status),
		logger:       logger,
		maxAttempts:  maxAttempts,
	}
}

// Add registers a dependency. Registration order is the fallback start order
// between dependencies with no declared relationship.
func (m *Manager) Add(dependency Dependency) {
	m.dependencies[dependency.Name()] = dependency
	m.order = append(m.order, dependency.Name())
}

// Start brings every registered dependency up, retrying the full sequence
// with fibonacci backoff until it succeeds or attempts run out.
func (m *Manager) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		m.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = nil
		for _, name := range m.order {
			if err := m.start(ctx, m.dependencies[name]); err != nil {
				m.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", name, attempt)
				lastErr = err
				break
			}
		}

		if lastErr == nil {
			return nil
		}

		if attempt == m.maxAttempts {
			return fmt.Errorf("startup failed after %d attempts: %w", attempt, lastErr)
		}

		m.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, m.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}

	return lastErr
}

func (m *Manager) start(ctx context.Context, dependency Dependency) error {
	if m.statuses[dependency.Name()] == statusStarted {
		return nil
	}

	for _, name := range dependency.DependsOn() {
		required, ok := m.dependencies[name]
		if !ok {
			return fmt.Errorf("dependency '%s' requires unregistered dependency '%s'", dependency.Name(), name)
		}
		if m.statuses[name] != statusStarted {
			if err := m.start(ctx, required); err != nil {
				return err
			}
		}
	}

	m.logger.WithField("dependency", dependency.Name()).Infof("Starting dependency '%s'", dependency.Name())
	m.statuses[dependency.Name()] = statusPending
	if err := dependency.Start(ctx); err != nil {
		m.statuses[dependency.Name()] = statusFailed
		return err
	}
	m.statuses[dependency.Name()] = statusStarted
	return nil
}

// Stop brings started dependencies down in reverse registration order.
// Stop errors are logged and skipped so a failing dependency cannot block
// the rest of shutdown.
func (m *Manager) Stop(ctx context.Context) {
	for i := len(m.order) - 1; i >= 0; i-- {
		name := m.order[i]
		if m.statuses[name] != statusStarted {
			continue
		}

		m.logger.WithField("dependency", name).Infof("Stopping dependency '%s'", name)
		if err := m.dependencies[name].Stop(ctx); err != nil {
			m.logger.WithError(err).WithField("dependency", name).Errorf("Failed to stop dependency '%s'", name)
			continue
		}
		m.statuses[name] = statusStopped
	}
}

// Func adapts start/stop closures into a Dependency for one-off steps such
// as migrations.
type Func struct {
	DependencyName string
	Requires       []string
	StartFunc      func(ctx context.Context) error
	StopFunc       func(ctx context.Context) error
}

func (f Func) Name() string        { return f.DependencyName }
func (f Func) DependsOn() []string { return f.Requires }

func (f Func) Start(ctx context.Context) error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc(ctx)
}

func (f Func) Stop(ctx context.Context) error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc(ctx)
}
