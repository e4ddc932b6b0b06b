// Package browsertest provides an in-memory browser.Driver for unit tests.
//
// A Site describes a handful of pages keyed by URL. Each page lists its elements by locator,
// with knobs for hidden, disabled, delayed and never-appearing elements. Drivers launched
// from a Site record what was typed, clicked and navigated so tests can assert on it.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/guvitest/internal/browser"
)

// Element describes one node on a fake page
type Element struct {
	Locator  browser.Locator
	Text     string
	Hidden   bool
	Disabled bool

	// RevealAfter keeps the element absent until this long after the most recent
	// navigation or action on the page.
	RevealAfter time.Duration
	// Never keeps the element absent for the lifetime of the page
	Never bool

	// NavigateTo, when set, makes a click load that URL
	NavigateTo string
}

// Page is a fake document served at one URL
type Page struct {
	Title    string
	Elements []*Element
}

func (p *Page) find(loc browser.Locator) *Element {
	if p == nil {
		return nil
	}
	for _, el := range p.Elements {
		if el.Locator == loc {
			return el
		}
	}
	return nil
}

// Site is a set of fake pages and the drivers launched against them
type Site struct {
	Pages map[string]*Page

	// ImplicitWait is how long Locate keeps looking before giving up
	ImplicitWait time.Duration
	// LaunchErr, when set, is returned by every launch
	LaunchErr error
	// PollInterval controls how often Locate re-checks a missing element
	PollInterval time.Duration

	mu      sync.Mutex
	drivers []*Driver
}

// NewSite creates an empty site
func NewSite() *Site {
	return &Site{
		Pages:        make(map[string]*Page),
		PollInterval: 5 * time.Millisecond,
	}
}

// AddPage registers a page at url and returns it for further setup
func (s *Site) AddPage(url, title string, elements ...*Element) *Page {
	p := &Page{Title: title, Elements: elements}
	s.Pages[url] = p
	return p
}

// Launcher returns a launcher creating a new driver per call
func (s *Site) Launcher() browser.Launcher {
	return browser.LauncherFunc(func(ctx context.Context) (browser.Driver, error) {
		if s.LaunchErr != nil {
			return nil, s.LaunchErr
		}
		d := NewDriver(s)
		s.mu.Lock()
		s.drivers = append(s.drivers, d)
		s.mu.Unlock()
		return d, nil
	})
}

// Drivers returns every driver launched from this site, oldest first
func (s *Site) Drivers() []*Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Driver, len(s.drivers))
	copy(out, s.drivers)
	return out
}

// Driver is a fake browser.Driver bound to a Site
type Driver struct {
	site *Site

	mu          sync.Mutex
	url         string
	page        *Page
	since       time.Time
	generation  uint64
	maximized   bool
	quits       int
	navigations []string
	typed       map[browser.Locator]string
	clicks      map[browser.Locator]int
}

// NewDriver creates a driver on about:blank
func NewDriver(site *Site) *Driver {
	return &Driver{
		site:   site,
		url:    "about:blank",
		since:  time.Now(),
		typed:  make(map[browser.Locator]string),
		clicks: make(map[browser.Locator]int),
	}
}

type handle struct {
	el         *Element
	generation uint64
}

func (h *handle) Locator() browser.Locator {
	return h.el.Locator
}

func (d *Driver) checkOpen() error {
	if d.quits > 0 {
		return browser.ErrDriverClosed
	}
	return nil
}

// load switches the active page; callers hold d.mu
func (d *Driver) load(url string) {
	d.url = url
	d.page = d.site.Pages[url]
	d.since = time.Now()
	d.generation++
	d.navigations = append(d.navigations, url)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.load(url)
	return nil
}

// present reports whether el exists right now; callers hold d.mu
func (d *Driver) present(el *Element) bool {
	if el == nil || el.Never {
		return false
	}
	return time.Since(d.since) >= el.RevealAfter
}

func (d *Driver) Locate(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if !loc.Valid() {
		return nil, fmt.Errorf("%s: %w", loc, browser.ErrInvalidLocator)
	}

	deadline := time.Now().Add(d.site.ImplicitWait)
	interval := d.site.PollInterval
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}

	for {
		d.mu.Lock()
		if err := d.checkOpen(); err != nil {
			d.mu.Unlock()
			return nil, err
		}
		el := d.page.find(loc)
		if d.present(el) {
			h := &handle{el: el, generation: d.generation}
			d.mu.Unlock()
			return h, nil
		}
		d.mu.Unlock()

		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%s: %w", loc, browser.ErrElementNotFound)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("locate %s: %w", loc, ctx.Err())
		case <-time.After(interval):
		}
	}
}

// resolve validates a handle against the current page; callers hold d.mu
func (d *Driver) resolve(el browser.Element) (*Element, error) {
	h, ok := el.(*handle)
	if !ok || h == nil {
		return nil, fmt.Errorf("element %T was not resolved by this driver", el)
	}
	if h.generation != d.generation {
		return nil, fmt.Errorf("%s: %w", h.el.Locator, browser.ErrStaleElement)
	}
	return h.el, nil
}

func (d *Driver) Query(ctx context.Context, el browser.Element) (browser.ElementState, error) {
	if err := ctx.Err(); err != nil {
		return browser.ElementState{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return browser.ElementState{}, err
	}
	e, err := d.resolve(el)
	if err != nil {
		return browser.ElementState{}, err
	}
	return browser.ElementState{
		Displayed: !e.Hidden,
		Enabled:   !e.Disabled,
		Text:      e.Text,
	}, nil
}

func (d *Driver) Act(ctx context.Context, el browser.Element, action browser.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	e, err := d.resolve(el)
	if err != nil {
		return err
	}
	if e.Hidden || e.Disabled {
		return fmt.Errorf("%s %s: element not interactable", action.Kind, e.Locator)
	}

	switch action.Kind {
	case browser.ActionClick:
		d.clicks[e.Locator]++
		if e.NavigateTo != "" {
			d.load(e.NavigateTo)
			return nil
		}
	case browser.ActionType:
		d.typed[e.Locator] += action.Text
	default:
		return fmt.Errorf("unsupported action %d", action.Kind)
	}
	d.since = time.Now()
	return nil
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return "", err
	}
	if d.page == nil {
		return "", nil
	}
	return d.page.Title, nil
}

func (d *Driver) Location(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return "", err
	}
	return d.url, nil
}

func (d *Driver) Maximize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.maximized = true
	return nil
}

func (d *Driver) Quit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	return nil
}

// Screenshot returns a placeholder image payload
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return []byte("fake-png:" + d.url), nil
}

// PageHTML renders the current page as minimal HTML
func (d *Driver) PageHTML(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return "", err
	}
	title := ""
	if d.page != nil {
		title = d.page.Title
	}
	return fmt.Sprintf("<html><head><title>%s</title></head><body><h1>%s</h1></body></html>", title, title), nil
}

// Maximized reports whether Maximize was called
func (d *Driver) Maximized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maximized
}

// Quits returns how many times Quit was called
func (d *Driver) Quits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

// Navigations returns every URL loaded, including click-triggered navigations
func (d *Driver) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.navigations))
	copy(out, d.navigations)
	return out
}

// Typed returns the text sent to the element matching loc
func (d *Driver) Typed(loc browser.Locator) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typed[loc]
}

// Clicks returns how many times the element matching loc was clicked
func (d *Driver) Clicks(loc browser.Locator) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clicks[loc]
}

var (
	_ browser.Driver      = (*Driver)(nil)
	_ browser.Snapshotter = (*Driver)(nil)
)
