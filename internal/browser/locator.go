package browser

import (
	"fmt"
	"strings"
)

// Strategy identifies how a Locator value is resolved against the document.
type Strategy int

const (
	// ByXPath resolves the value as an XPath expression
	ByXPath Strategy = iota + 1
	// ByID matches the element whose id attribute equals the value
	ByID
	// ByName matches the first element whose name attribute equals the value
	ByName
)

// String returns the wire name of the strategy
func (s Strategy) String() string {
	switch s {
	case ByXPath:
		return "xpath"
	case ByID:
		return "id"
	case ByName:
		return "name"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Locator is a (strategy, value) pair identifying zero or more elements.
// Locators are plain values and are built fresh for each lookup.
type Locator struct {
	Strategy Strategy
	Value    string
}

// XPath returns a locator resolved as an XPath expression
func XPath(expr string) Locator {
	return Locator{Strategy: ByXPath, Value: expr}
}

// ID returns a locator matching an element id
func ID(id string) Locator {
	return Locator{Strategy: ByID, Value: id}
}

// Name returns a locator matching an element name attribute
func Name(name string) Locator {
	return Locator{Strategy: ByName, Value: name}
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// Valid reports whether the locator has a known strategy and a non-empty value
func (l Locator) Valid() bool {
	switch l.Strategy {
	case ByXPath, ByID, ByName:
		return l.Value != ""
	default:
		return false
	}
}

// cssAttrValue quotes v for use inside a CSS attribute selector
func cssAttrValue(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}
