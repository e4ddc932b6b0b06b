package pages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/guvitest/internal/browser"
	"github.com/ternarybob/guvitest/internal/browser/browsertest"
	"github.com/ternarybob/guvitest/internal/session"
)

const expectedError = "Incorrect Email or Password"

func startSession(t *testing.T, site *browsertest.Site) (*session.Session, *browsertest.Driver) {
	t.Helper()
	ctx := context.Background()
	s := session.New(site.Launcher(), arbor.NewLogger())
	require.NoError(t, s.Setup(ctx))
	t.Cleanup(func() { _ = s.Teardown(ctx) })

	drivers := site.Drivers()
	return s, drivers[len(drivers)-1]
}

func loginSite(banner *browsertest.Element) *browsertest.Site {
	site := browsertest.NewSite()
	elements := []*browsertest.Element{
		{Locator: EmailField},
		{Locator: PasswordField},
		{Locator: LoginButton, Text: "Login"},
	}
	if banner != nil {
		elements = append(elements, banner)
	}
	site.AddPage(SignInURL, "Sign in", elements...)
	return site
}

func TestHomePage_ClickSignup(t *testing.T) {
	site := browsertest.NewSite()
	site.AddPage(HomeURL, "GUVI | Learn to code in your native language",
		&browsertest.Element{Locator: SignupLink, Text: "Sign up", NavigateTo: RegisterURL},
	)
	site.AddPage(RegisterURL, "Register")

	s, driver := startSession(t, site)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, HomeURL))

	home := NewHomePage(s)
	require.NoError(t, home.ClickSignup(ctx))

	url, err := s.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, RegisterURL, url)
	assert.Equal(t, 1, driver.Clicks(SignupLink))
}

func TestHomePage_ClickSignupMissingLink(t *testing.T) {
	site := browsertest.NewSite()
	site.AddPage(HomeURL, "GUVI")

	s, _ := startSession(t, site)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, HomeURL))

	err := NewHomePage(s).ClickSignup(ctx)
	assert.ErrorIs(t, err, browser.ErrElementNotFound)
}

func TestLoginPage_LoginTypesCredentialsAndSubmits(t *testing.T) {
	site := loginSite(nil)
	s, driver := startSession(t, site)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, SignInURL))

	login := NewLoginPage(s)
	require.NoError(t, login.Login(ctx, "invalidemail@example.com", "invalidpassword"))

	assert.Equal(t, "invalidemail@example.com", driver.Typed(EmailField))
	assert.Equal(t, "invalidpassword", driver.Typed(PasswordField))
	assert.Equal(t, 1, driver.Clicks(LoginButton))
}

func TestLoginPage_LoginPassesEmptyCredentialsThrough(t *testing.T) {
	site := loginSite(nil)
	s, driver := startSession(t, site)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, SignInURL))

	require.NoError(t, NewLoginPage(s).Login(ctx, "", ""))
	assert.Equal(t, "", driver.Typed(EmailField))
	assert.Equal(t, 1, driver.Clicks(LoginButton))
}

func TestLoginPage_ErrorMessageAppearsWithinTimeout(t *testing.T) {
	site := loginSite(&browsertest.Element{
		Locator:     ErrorBanner,
		Text:        expectedError,
		RevealAfter: 100 * time.Millisecond,
	})
	s, _ := startSession(t, site)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, SignInURL))

	login := NewLoginPage(s,
		WithErrorTimeout(2*time.Second),
		WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, login.Login(ctx, "invalidemail@example.com", "invalidpassword"))

	reading := login.ReadErrorMessage(ctx)
	require.True(t, reading.Found, "banner should be found: %v", reading.Err)
	assert.NoError(t, reading.Err)
	assert.Equal(t, expectedError, reading.Text)
	assert.Equal(t, expectedError, reading.OrEmpty())
}

func TestLoginPage_ErrorMessageNeverAppears(t *testing.T) {
	tests := []struct {
		name   string
		banner *browsertest.Element
	}{
		{"absent", nil},
		{"never revealed", &browsertest.Element{Locator: ErrorBanner, Text: expectedError, Never: true}},
		{"present but hidden", &browsertest.Element{Locator: ErrorBanner, Text: expectedError, Hidden: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := startSession(t, loginSite(tt.banner))
			ctx := context.Background()
			require.NoError(t, s.Open(ctx, SignInURL))

			timeout := 200 * time.Millisecond
			login := NewLoginPage(s, WithErrorTimeout(timeout), WithPollInterval(10*time.Millisecond))
			require.NoError(t, login.Login(ctx, "invalidemail@example.com", "invalidpassword"))

			start := time.Now()
			msg := login.ErrorMessage(ctx)
			elapsed := time.Since(start)

			assert.Equal(t, "", msg)
			assert.GreaterOrEqual(t, elapsed, timeout-20*time.Millisecond)
			assert.Less(t, elapsed, timeout+time.Second, "wait must be bounded by the timeout")
		})
	}
}

func TestLoginPage_ReadErrorMessageReportsTimeout(t *testing.T) {
	s, _ := startSession(t, loginSite(nil))
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, SignInURL))

	reading := NewLoginPage(s, WithErrorTimeout(50*time.Millisecond), WithPollInterval(5*time.Millisecond)).
		ReadErrorMessage(ctx)

	assert.True(t, reading.TimedOut())
	assert.False(t, reading.Found)
	require.Error(t, reading.Err)
	assert.Contains(t, reading.Err.Error(), "element not found")
	assert.Equal(t, "", reading.OrEmpty())
}

func TestLoginPage_DefaultTimeouts(t *testing.T) {
	p := NewLoginPage(nil, WithErrorTimeout(0), WithPollInterval(-1))
	assert.Equal(t, DefaultErrorTimeout, p.errorTimeout)
	assert.Equal(t, DefaultPollInterval, p.pollInterval)
}
