// Package session owns the lifecycle of one browser session: launch, maximize, navigate and quit.
//
// A Session is owned by exactly one scenario and is not safe for concurrent use.
// Element handles returned by FindElement are valid only until the next Open.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/guvitest/internal/browser"
)

// ErrNoSession is returned by every operation attempted before Setup or after Teardown
var ErrNoSession = errors.New("session not started")

// Session wraps a single browser driver
type Session struct {
	launcher browser.Launcher
	logger   arbor.ILogger
	driver   browser.Driver
}

// New creates a session that launches browsers with launcher. Nothing starts until Setup.
func New(launcher browser.Launcher, logger arbor.ILogger) *Session {
	return &Session{
		launcher: launcher,
		logger:   logger,
	}
}

// Setup launches the browser and maximizes its window
func (s *Session) Setup(ctx context.Context) error {
	if s.driver != nil {
		return fmt.Errorf("session already started")
	}

	driver, err := s.launcher.Launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	if err := driver.Maximize(ctx); err != nil {
		if qerr := driver.Quit(ctx); qerr != nil {
			s.logger.Warn().Err(qerr).Msg("Failed to quit browser after maximize failure")
		}
		return fmt.Errorf("failed to maximize browser window: %w", err)
	}

	s.driver = driver
	s.logger.Debug().Msg("Browser session started")
	return nil
}

// Active reports whether the session has a live driver
func (s *Session) Active() bool {
	return s.driver != nil
}

// Driver returns the underlying driver, or nil before Setup
func (s *Session) Driver() browser.Driver {
	return s.driver
}

// Logger returns the session logger
func (s *Session) Logger() arbor.ILogger {
	return s.logger
}

// Open navigates to url
func (s *Session) Open(ctx context.Context, url string) error {
	if s.driver == nil {
		return ErrNoSession
	}
	s.logger.Debug().Str("url", url).Msg("Opening URL")
	return s.driver.Navigate(ctx, url)
}

// Title returns the current document title
func (s *Session) Title(ctx context.Context) (string, error) {
	if s.driver == nil {
		return "", ErrNoSession
	}
	return s.driver.Title(ctx)
}

// CurrentURL returns the URL the browser is showing. It is read from the browser every time.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if s.driver == nil {
		return "", ErrNoSession
	}
	return s.driver.Location(ctx)
}

// FindElement resolves loc against the current document
func (s *Session) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if s.driver == nil {
		return nil, ErrNoSession
	}
	return s.driver.Locate(ctx, loc)
}

// IsVisible reports whether el is displayed
func (s *Session) IsVisible(ctx context.Context, el browser.Element) (bool, error) {
	state, err := s.query(ctx, el)
	if err != nil {
		return false, err
	}
	return state.Displayed, nil
}

// IsClickable reports whether el is both enabled and displayed
func (s *Session) IsClickable(ctx context.Context, el browser.Element) (bool, error) {
	state, err := s.query(ctx, el)
	if err != nil {
		return false, err
	}
	return state.Enabled && state.Displayed, nil
}

// Text returns the visible text of el
func (s *Session) Text(ctx context.Context, el browser.Element) (string, error) {
	state, err := s.query(ctx, el)
	if err != nil {
		return "", err
	}
	return state.Text, nil
}

// Click clicks el
func (s *Session) Click(ctx context.Context, el browser.Element) error {
	if s.driver == nil {
		return ErrNoSession
	}
	return s.driver.Act(ctx, el, browser.Click())
}

// Type sends text to el as key input
func (s *Session) Type(ctx context.Context, el browser.Element, text string) error {
	if s.driver == nil {
		return ErrNoSession
	}
	return s.driver.Act(ctx, el, browser.Type(text))
}

func (s *Session) query(ctx context.Context, el browser.Element) (browser.ElementState, error) {
	if s.driver == nil {
		return browser.ElementState{}, ErrNoSession
	}
	return s.driver.Query(ctx, el)
}

// Teardown quits the browser if one is running. Calling it again, or without Setup, does nothing.
func (s *Session) Teardown(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	driver := s.driver
	s.driver = nil

	if err := driver.Quit(ctx); err != nil {
		return fmt.Errorf("failed to quit browser: %w", err)
	}
	s.logger.Debug().Msg("Browser session closed")
	return nil
}
