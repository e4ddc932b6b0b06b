// Package browser defines the browser-automation contract used by sessions and page objects,
// along with the chromedp implementation of it.
//
// The contract is deliberately small: navigate to a URL, locate an element, query its state,
// and act on it (click or type). Anything implementing Driver can stand in for a real browser.
package browser

import (
	"context"
	"errors"
)

var (
	// ErrElementNotFound is returned when no element matches a locator within the implicit wait
	ErrElementNotFound = errors.New("element not found")
	// ErrStaleElement is returned when a handle is used after the page it was resolved on has gone
	ErrStaleElement = errors.New("stale element handle")
	// ErrDriverClosed is returned by any call made after Quit
	ErrDriverClosed = errors.New("driver closed")
	// ErrInvalidLocator is returned for locators with an unknown strategy or empty value
	ErrInvalidLocator = errors.New("invalid locator")
)

// Element is a transient handle to a node resolved from a Locator.
// Handles belong to the document they were resolved against and must not be reused
// after a navigation.
type Element interface {
	Locator() Locator
}

// ElementState is the read-only view of an element returned by Query
type ElementState struct {
	Displayed bool   `json:"displayed"`
	Enabled   bool   `json:"enabled"`
	Text      string `json:"text"`
}

// ActionKind enumerates the interactions a driver can perform on an element
type ActionKind int

const (
	ActionClick ActionKind = iota + 1
	ActionType
)

func (k ActionKind) String() string {
	switch k {
	case ActionClick:
		return "click"
	case ActionType:
		return "type"
	default:
		return "unknown"
	}
}

// Action is an interaction to dispatch against an element
type Action struct {
	Kind ActionKind
	Text string // keys to send for ActionType
}

// Click returns a click action
func Click() Action {
	return Action{Kind: ActionClick}
}

// Type returns an action that sends text to the element as key events
func Type(text string) Action {
	return Action{Kind: ActionType, Text: text}
}

// Driver is the browser-automation contract consumed by sessions.
// All methods block until the browser responds, the context ends, or the driver's
// own implicit wait expires.
type Driver interface {
	// Navigate loads url in the active tab. Previously resolved elements become stale.
	Navigate(ctx context.Context, url string) error
	// Locate resolves one element, waiting up to the driver's implicit wait.
	// Returns an error wrapping ErrElementNotFound when nothing matches.
	Locate(ctx context.Context, loc Locator) (Element, error)
	// Query reads the displayed/enabled state and visible text of an element.
	Query(ctx context.Context, el Element) (ElementState, error)
	// Act dispatches a click or key input to an element. A click that loads a new
	// document makes previously resolved elements stale, same as Navigate.
	Act(ctx context.Context, el Element, action Action) error

	Title(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
	Maximize(ctx context.Context) error

	// Quit terminates the browser. Calling Quit more than once is a no-op.
	Quit(ctx context.Context) error
}

// Snapshotter is implemented by drivers that can capture the current page for diagnostics
type Snapshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
	PageHTML(ctx context.Context) (string, error)
}

// Launcher starts a new browser and returns a driver bound to it
type Launcher interface {
	Launch(ctx context.Context) (Driver, error)
}

// LauncherFunc adapts a function to the Launcher interface
type LauncherFunc func(ctx context.Context) (Driver, error)

// Launch calls f(ctx)
func (f LauncherFunc) Launch(ctx context.Context) (Driver, error) {
	return f(ctx)
}
