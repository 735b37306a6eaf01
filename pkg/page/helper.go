// Package page provides the wait-aware element primitives page objects are built from.
//
// Page objects hold a Helper instead of embedding a base type. Helper methods
// resolve a locator against the live UI on every call; nothing is cached.
package page

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/devicelab-dev/inji-pages/pkg/appium"
	"github.com/devicelab-dev/inji-pages/pkg/core"
	"github.com/devicelab-dev/inji-pages/pkg/locator"
	"github.com/devicelab-dev/inji-pages/pkg/logger"
)

// Defaults for element waits.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
)

// Helper is what a page object needs from the automation layer.
type Helper interface {
	// Click waits for the element to be displayed and enabled, then clicks it.
	Click(loc locator.Locator) error
	// IsDisplayed reports visibility. A missing element is not an error.
	IsDisplayed(loc locator.Locator) (bool, error)
	// IsEnabled reports the enabled state. A missing element is not an error.
	IsEnabled(loc locator.Locator) (bool, error)
}

// Finder is the subset of the Appium client Base drives.
type Finder interface {
	FindElement(strategy, value string) (string, error)
	FindElements(strategy, value string) ([]string, error)
	ClickElement(elementID string) error
	IsElementDisplayed(elementID string) (bool, error)
	IsElementEnabled(elementID string) (bool, error)
}

// Base implements Helper on top of a Finder.
type Base struct {
	finder   Finder
	timeout  time.Duration
	interval time.Duration
}

var _ Helper = (*Base)(nil)

// Option configures a Base.
type Option func(*Base)

// WithTimeout sets how long lookups wait. Zero means a single attempt.
func WithTimeout(d time.Duration) Option {
	return func(b *Base) {
		if d >= 0 {
			b.timeout = d
		}
	}
}

// WithPollInterval sets the delay between attempts.
func WithPollInterval(d time.Duration) Option {
	return func(b *Base) {
		if d > 0 {
			b.interval = d
		}
	}
}

// NewBase creates a Base bound to an automation session.
func NewBase(finder Finder, opts ...Option) *Base {
	b := &Base{
		finder:   finder,
		timeout:  DefaultTimeout,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Timeout returns the configured wait.
func (b *Base) Timeout() time.Duration {
	return b.timeout
}

// errNotYet marks an attempt whose condition does not hold yet.
var errNotYet = errors.New("condition not met")

type clickState int

const (
	stateMissing clickState = iota
	stateNotClickable
)

// Click implements Helper.
func (b *Base) Click(loc locator.Locator) error {
	state := stateMissing
	var lastErr error

	err := b.poll(func() error {
		id, err := b.resolve(loc)
		if err != nil {
			return err
		}
		if id == "" {
			state = stateMissing
			return errNotYet
		}

		displayed, err := b.finder.IsElementDisplayed(id)
		if err != nil {
			return err
		}
		enabled, err := b.finder.IsElementEnabled(id)
		if err != nil {
			return err
		}
		if !displayed || !enabled {
			state = stateNotClickable
			return errNotYet
		}

		err = b.finder.ClickElement(id)
		if appium.IsNotInteractable(err) {
			state = stateNotClickable
			lastErr = err
			return errNotYet
		}
		return err
	})

	if err == nil {
		logger.Info("clicked %s", loc.Describe())
		return nil
	}
	if !retryable(err) {
		return fmt.Errorf("click %s: %w", label(loc), err)
	}
	if !errors.Is(err, errNotYet) {
		lastErr = err
	}

	details := b.details(loc)
	var execErr *core.ExecutionError
	switch {
	case state == stateNotClickable:
		execErr = core.ErrElementNotInteractable.
			WithMessage(fmt.Sprintf("element not interactable: %s", loc.Describe())).
			WithDetails(details)
	case appium.IsTimeout(lastErr):
		execErr = core.ErrTimeout.
			WithMessage(fmt.Sprintf("timed out finding %s", loc.Describe())).
			WithDetails(details)
	default:
		execErr = core.ErrElementNotFound.
			WithMessage(fmt.Sprintf("element not found: %s", loc.Describe())).
			WithDetails(details)
	}
	if lastErr != nil {
		execErr = execErr.WithCause(lastErr)
	}
	logger.Warn("click %s failed: %v", label(loc), execErr)
	return execErr
}

// IsDisplayed implements Helper.
func (b *Base) IsDisplayed(loc locator.Locator) (bool, error) {
	err := b.poll(func() error {
		id, err := b.resolve(loc)
		if err != nil {
			return err
		}
		if id == "" {
			return errNotYet
		}
		displayed, err := b.finder.IsElementDisplayed(id)
		if err != nil {
			return err
		}
		if !displayed {
			return errNotYet
		}
		return nil
	})

	switch {
	case err == nil:
		logger.Info("%s is displayed", label(loc))
		return true, nil
	case retryable(err):
		logger.Info("%s is not displayed", label(loc))
		return false, nil
	default:
		return false, fmt.Errorf("check %s displayed: %w", label(loc), err)
	}
}

// IsEnabled implements Helper.
func (b *Base) IsEnabled(loc locator.Locator) (bool, error) {
	var enabled bool
	err := b.poll(func() error {
		id, err := b.resolve(loc)
		if err != nil {
			return err
		}
		if id == "" {
			return errNotYet
		}
		enabled, err = b.finder.IsElementEnabled(id)
		return err
	})

	switch {
	case err == nil:
		logger.Info("%s enabled=%t", label(loc), enabled)
		return enabled, nil
	case retryable(err):
		logger.Info("%s not found, reporting disabled", label(loc))
		return false, nil
	default:
		return false, fmt.Errorf("check %s enabled: %w", label(loc), err)
	}
}

// resolve returns the element id for loc, or "" when nothing matches right now.
func (b *Base) resolve(loc locator.Locator) (string, error) {
	if loc.IsZero() {
		return "", core.ErrInvalidConfig.WithMessage("empty locator " + loc.Describe())
	}

	if loc.Pick == locator.PickLast {
		ids, err := b.finder.FindElements(string(loc.Strategy), loc.Value)
		if err != nil {
			return "", err
		}
		if len(ids) == 0 {
			return "", nil
		}
		return ids[len(ids)-1], nil
	}

	id, err := b.finder.FindElement(string(loc.Strategy), loc.Value)
	if appium.IsNoSuchElement(err) {
		return "", nil
	}
	return id, err
}

// poll runs attempt until it succeeds, fails permanently, or the timeout elapses.
// The last attempt error is returned.
func (b *Base) poll(attempt func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	policy := backoff.WithContext(backoff.NewConstantBackOff(b.interval), ctx)
	return backoff.Retry(func() error {
		err := attempt()
		if err == nil || retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

func (b *Base) details(loc locator.Locator) map[string]interface{} {
	return map[string]interface{}{
		"label":     loc.Label,
		"strategy":  string(loc.Strategy),
		"selector":  loc.Value,
		"timeoutMs": b.timeout.Milliseconds(),
	}
}

// retryable reports whether another attempt may succeed.
func retryable(err error) bool {
	return errors.Is(err, errNotYet) ||
		appium.IsNoSuchElement(err) ||
		appium.IsStale(err) ||
		appium.IsTimeout(err)
}

func label(loc locator.Locator) string {
	if loc.Label != "" {
		return loc.Label
	}
	return loc.Describe()
}
