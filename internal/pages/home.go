// Package pages holds the page objects for the GUVI site.
// Each page object wraps one session and exposes the actions a scenario needs on that page.
package pages

import (
	"context"
	"fmt"

	"github.com/ternarybob/guvitest/internal/browser"
	"github.com/ternarybob/guvitest/internal/session"
)

// HomeURL is the site entry page
const HomeURL = "https://www.guvi.in/"

var (
	// SignupLink is the "Sign up" anchor on the home page
	SignupLink = browser.XPath("//a[text()='Sign up']")
	// HomeLoginButton is the login button in the home page header
	HomeLoginButton = browser.XPath("//*[@id='login-btn']")
)

// HomePage wraps the home page
type HomePage struct {
	session *session.Session
}

// NewHomePage binds a home page object to s
func NewHomePage(s *session.Session) *HomePage {
	return &HomePage{session: s}
}

// FindElement resolves an arbitrary locator on the home page
func (p *HomePage) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	return p.session.FindElement(ctx, loc)
}

// ClickSignup clicks the "Sign up" link
func (p *HomePage) ClickSignup(ctx context.Context) error {
	link, err := p.session.FindElement(ctx, SignupLink)
	if err != nil {
		return fmt.Errorf("sign up link: %w", err)
	}
	return p.session.Click(ctx, link)
}
