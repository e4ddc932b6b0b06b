package browser

import (
	"context"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestOnObject_TargetsResolvedNode(t *testing.T) {
	params := onObject("node-42")(runtime.CallFunctionOn(queryStateJS))

	assert.Equal(t, runtime.RemoteObjectID("node-42"), params.ObjectID)
	assert.True(t, strings.HasPrefix(params.FunctionDeclaration, "function()"))
}

func TestChromeDriver_TopFrameNavigationInvalidatesHandles(t *testing.T) {
	d := &ChromeDriver{logger: arbor.NewLogger()}
	el := &chromeElement{node: &cdp.Node{NodeID: 7}, locator: ID("login-btn"), generation: d.currentGeneration()}

	_, err := d.element(el)
	require.NoError(t, err)

	// Child frames loading must not touch handles in the top document
	d.observe(&page.EventFrameNavigated{Frame: &cdp.Frame{ID: "child", ParentID: "top"}})
	d.observe(&page.EventLoadEventFired{})
	_, err = d.element(el)
	require.NoError(t, err)

	// A click that loads the dashboard commits a new top-level document
	d.observe(&page.EventFrameNavigated{Frame: &cdp.Frame{ID: "top"}})
	_, err = d.element(el)
	assert.ErrorIs(t, err, ErrStaleElement)
}

func TestChromeDriver_ClosedDriverRejectsCalls(t *testing.T) {
	d := &ChromeDriver{logger: arbor.NewLogger(), closed: true}

	_, err := d.Title(context.Background())
	assert.ErrorIs(t, err, ErrDriverClosed)
}
