package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocator_String(t *testing.T) {
	assert.Equal(t, "xpath=//a[text()='Sign up']", XPath("//a[text()='Sign up']").String())
	assert.Equal(t, "id=email", ID("email").String())
	assert.Equal(t, "name=password", Name("password").String())
	assert.Equal(t, "strategy(9)=x", Locator{Strategy: 9, Value: "x"}.String())
}

func TestLocator_Valid(t *testing.T) {
	tests := []struct {
		name    string
		locator Locator
		valid   bool
	}{
		{"xpath", XPath("//div"), true},
		{"id", ID("login-btn"), true},
		{"name", Name("email"), true},
		{"empty value", ID(""), false},
		{"zero strategy", Locator{Value: "email"}, false},
		{"unknown strategy", Locator{Strategy: 42, Value: "email"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.locator.Valid())
		})
	}
}

func TestLocator_Comparable(t *testing.T) {
	assert.Equal(t, ID("email"), ID("email"))
	assert.NotEqual(t, ID("email"), Name("email"))
}

func TestChromeSelector(t *testing.T) {
	tests := []struct {
		locator  Locator
		selector string
	}{
		{ID("login-btn"), "#login-btn"},
		{Name("email"), `[name="email"]`},
		{Name(`we"ird`), `[name="we\"ird"]`},
		{XPath("//div[@class='invalid-feedback']"), "//div[@class='invalid-feedback']"},
	}

	for _, tt := range tests {
		t.Run(tt.locator.String(), func(t *testing.T) {
			selector, opt := chromeSelector(tt.locator)
			assert.Equal(t, tt.selector, selector)
			assert.NotNil(t, opt)
		})
	}
}

func TestActions(t *testing.T) {
	assert.Equal(t, Action{Kind: ActionClick}, Click())
	assert.Equal(t, Action{Kind: ActionType, Text: "hello"}, Type("hello"))
	assert.Equal(t, "click", ActionClick.String())
	assert.Equal(t, "type", ActionType.String())
}
