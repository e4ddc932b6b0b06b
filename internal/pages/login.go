package pages

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/ternarybob/guvitest/internal/browser"
	"github.com/ternarybob/guvitest/internal/session"
)

// SignInURL is the login page
const SignInURL = "https://www.guvi.in/sign-in/"

// RegisterURL is where the sign up link is expected to lead
const RegisterURL = "https://www.guvi.in/register/"

const (
	// DefaultErrorTimeout bounds the wait for the login error banner
	DefaultErrorTimeout = 10 * time.Second
	// DefaultPollInterval is how often the banner is checked while waiting
	DefaultPollInterval = 250 * time.Millisecond
)

var (
	EmailField    = browser.ID("email")
	PasswordField = browser.ID("password")
	LoginButton   = browser.ID("login-btn")
	ErrorBanner   = browser.XPath("//div[@class='invalid-feedback']")
)

// LoginPage wraps the sign-in form
type LoginPage struct {
	session      *session.Session
	errorTimeout time.Duration
	pollInterval time.Duration
}

// LoginOption customizes a LoginPage
type LoginOption func(*LoginPage)

// WithErrorTimeout overrides how long ReadErrorMessage waits for the banner
func WithErrorTimeout(d time.Duration) LoginOption {
	return func(p *LoginPage) {
		if d > 0 {
			p.errorTimeout = d
		}
	}
}

// WithPollInterval overrides how often ReadErrorMessage checks for the banner
func WithPollInterval(d time.Duration) LoginOption {
	return func(p *LoginPage) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// NewLoginPage binds a login page object to s
func NewLoginPage(s *session.Session, opts ...LoginOption) *LoginPage {
	p := &LoginPage{
		session:      s,
		errorTimeout: DefaultErrorTimeout,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Login fills in the credentials and submits the form.
// Credentials are passed through as given; the site does the validation.
func (p *LoginPage) Login(ctx context.Context, email, password string) error {
	emailField, err := p.session.FindElement(ctx, EmailField)
	if err != nil {
		return fmt.Errorf("email field: %w", err)
	}
	passwordField, err := p.session.FindElement(ctx, PasswordField)
	if err != nil {
		return fmt.Errorf("password field: %w", err)
	}

	if err := p.session.Type(ctx, emailField, email); err != nil {
		return fmt.Errorf("failed to enter email: %w", err)
	}
	if err := p.session.Type(ctx, passwordField, password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}

	button, err := p.session.FindElement(ctx, LoginButton)
	if err != nil {
		return fmt.Errorf("login button: %w", err)
	}
	return p.session.Click(ctx, button)
}

// ErrorReading is the outcome of waiting for the login error banner.
// Found is false when the banner never became visible; Err then holds the reason.
type ErrorReading struct {
	Text  string
	Found bool
	Err   error
}

// OrEmpty collapses a timed-out reading to the empty string.
// An empty result is ambiguous: no banner shown, or the lookup failed.
func (r ErrorReading) OrEmpty() string {
	if !r.Found {
		return ""
	}
	return r.Text
}

// TimedOut reports whether the banner never appeared
func (r ErrorReading) TimedOut() bool {
	return !r.Found
}

// ReadErrorMessage waits up to the error timeout for the error banner to become visible
// and returns its text. Lookup failures while waiting are not returned as errors; they are
// logged and reported as a timed-out reading.
func (p *LoginPage) ReadErrorMessage(ctx context.Context) ErrorReading {
	var (
		text    string
		lastErr error
	)

	err := wait.PollUntilContextTimeout(ctx, p.pollInterval, p.errorTimeout, true, func(ctx context.Context) (bool, error) {
		banner, err := p.session.FindElement(ctx, ErrorBanner)
		if err != nil {
			lastErr = err
			return false, nil
		}
		visible, err := p.session.IsVisible(ctx, banner)
		if err != nil {
			lastErr = err
			return false, nil
		}
		if !visible {
			return false, nil
		}
		text, err = p.session.Text(ctx, banner)
		if err != nil {
			lastErr = err
			return false, nil
		}
		return true, nil
	})

	if err != nil {
		if lastErr != nil {
			err = fmt.Errorf("%w (last lookup: %v)", err, lastErr)
		}
		p.session.Logger().Warn().
			Err(err).
			Str("locator", ErrorBanner.String()).
			Dur("timeout", p.errorTimeout).
			Msg("Error while fetching error message")
		return ErrorReading{Err: err}
	}

	return ErrorReading{Text: text, Found: true}
}

// ErrorMessage returns the banner text, or "" if it did not appear in time
func (p *LoginPage) ErrorMessage(ctx context.Context) string {
	return p.ReadErrorMessage(ctx).OrEmpty()
}
