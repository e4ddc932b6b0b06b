// Package scenarios holds the GUVI auth flow regression checks and the runner that executes them.
package scenarios

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/guvitest/internal/browser"
	"github.com/ternarybob/guvitest/internal/common"
	"github.com/ternarybob/guvitest/internal/pages"
	"github.com/ternarybob/guvitest/internal/session"
)

// ErrAssertion marks a scenario that ran to completion but observed the wrong value
var ErrAssertion = errors.New("assertion failed")

// Env is what a scenario gets to work with. The session is already set up.
type Env struct {
	Session *session.Session
	Config  *common.Config
	Logger  arbor.ILogger
}

// Scenario is one named check
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

const (
	URLValid              = "url_valid"
	Title                 = "title"
	LoginButtonClickable  = "login_button_visible_and_clickable"
	SignupButtonClickable = "signup_button_visible_and_clickable"
	SignUpRedirect        = "sign_up_redirect"
	LoginSuccess          = "login_success"
	LoginInvalid          = "login_invalid"
)

// All returns every scenario in execution order
func All() []Scenario {
	return []Scenario{
		{Name: URLValid, Description: "Home page loads at the expected URL", Run: checkURL},
		{Name: Title, Description: "Home page has the expected title", Run: checkTitle},
		{Name: LoginButtonClickable, Description: "Home page login button is displayed and clickable", Run: checkLoginButton},
		{Name: SignupButtonClickable, Description: "Home page sign up link is displayed and clickable", Run: checkSignupButton},
		{Name: SignUpRedirect, Description: "Sign up link leaves the home page for somewhere other than sign-in", Run: checkSignUpRedirect},
		{Name: LoginSuccess, Description: "Valid credentials can be submitted", Run: checkLoginSuccess},
		{Name: LoginInvalid, Description: "Invalid credentials show the error banner", Run: checkLoginInvalid},
	}
}

// Select returns the scenarios named in names, in catalogue order. An empty names selects all.
func Select(names []string) ([]Scenario, error) {
	all := All()
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	selected := make([]Scenario, 0, len(names))
	for _, sc := range all {
		if wanted[sc.Name] {
			selected = append(selected, sc)
			delete(wanted, sc.Name)
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for _, name := range names {
			if wanted[name] {
				unknown = append(unknown, name)
			}
		}
		return nil, fmt.Errorf("unknown scenario(s): %v", unknown)
	}
	return selected, nil
}

func assertEqual(what, expected, actual string) error {
	if expected != actual {
		return fmt.Errorf("%w: %s: expected %q, got %q", ErrAssertion, what, expected, actual)
	}
	return nil
}

func checkURL(ctx context.Context, env *Env) error {
	if err := env.Session.Open(ctx, env.Config.Site.HomeURL); err != nil {
		return err
	}
	url, err := env.Session.CurrentURL(ctx)
	if err != nil {
		return err
	}
	return assertEqual("current url", env.Config.Site.HomeURL, url)
}

func checkTitle(ctx context.Context, env *Env) error {
	if err := env.Session.Open(ctx, env.Config.Site.HomeURL); err != nil {
		return err
	}
	title, err := env.Session.Title(ctx)
	if err != nil {
		return err
	}
	return assertEqual("page title", env.Config.Site.ExpectedTitle, title)
}

func checkLoginButton(ctx context.Context, env *Env) error {
	if err := env.Session.Open(ctx, env.Config.Site.HomeURL); err != nil {
		return err
	}
	return displayedThenClick(ctx, env, pages.NewHomePage(env.Session), "login button", pages.HomeLoginButton)
}

func checkSignupButton(ctx context.Context, env *Env) error {
	if err := env.Session.Open(ctx, env.Config.Site.HomeURL); err != nil {
		return err
	}
	return displayedThenClick(ctx, env, pages.NewHomePage(env.Session), "sign up link", pages.SignupLink)
}

func displayedThenClick(ctx context.Context, env *Env, home *pages.HomePage, what string, loc browser.Locator) error {
	el, err := home.FindElement(ctx, loc)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	visible, err := env.Session.IsVisible(ctx, el)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if !visible {
		return fmt.Errorf("%w: %s is not displayed", ErrAssertion, what)
	}
	return env.Session.Click(ctx, el)
}

// checkSignUpRedirect only requires that the sign up link does not land on the sign-in page.
// The register URL is logged for comparison but not asserted.
func checkSignUpRedirect(ctx context.Context, env *Env) error {
	if err := env.Session.Open(ctx, env.Config.Site.HomeURL); err != nil {
		return err
	}
	if err := pages.NewHomePage(env.Session).ClickSignup(ctx); err != nil {
		return err
	}
	url, err := env.Session.CurrentURL(ctx)
	if err != nil {
		return err
	}

	env.Logger.Info().
		Str("expected", env.Config.Site.RegisterURL).
		Str("actual", url).
		Msg("Sign up redirect")

	if url == env.Config.Site.SignInURL {
		return fmt.Errorf("%w: sign up link led to the sign-in page %q", ErrAssertion, url)
	}
	return nil
}

// checkLoginSuccess submits the valid credentials. The outcome is not checked.
func checkLoginSuccess(ctx context.Context, env *Env) error {
	if err := env.Session.Open(ctx, env.Config.Site.SignInURL); err != nil {
		return err
	}
	if env.Config.Credentials.ValidEmail == "" {
		env.Logger.Warn().Msg("No valid credentials configured, submitting empty form")
	}
	return loginPage(env).Login(ctx, env.Config.Credentials.ValidEmail, env.Config.Credentials.ValidPassword)
}

func checkLoginInvalid(ctx context.Context, env *Env) error {
	if err := env.Session.Open(ctx, env.Config.Site.SignInURL); err != nil {
		return err
	}
	login := loginPage(env)
	if err := login.Login(ctx, env.Config.Credentials.InvalidEmail, env.Config.Credentials.InvalidPassword); err != nil {
		return err
	}
	return assertEqual("error message", env.Config.Site.ExpectedError, login.ErrorMessage(ctx))
}

func loginPage(env *Env) *pages.LoginPage {
	return pages.NewLoginPage(env.Session,
		pages.WithErrorTimeout(env.Config.Wait.ErrorTimeout.Std()),
		pages.WithPollInterval(env.Config.Wait.PollInterval.Std()),
	)
}
