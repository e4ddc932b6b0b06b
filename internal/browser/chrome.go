package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// ChromeConfig holds the options used to launch a Chrome instance
type ChromeConfig struct {
	Headless       bool          `json:"headless"`
	NoSandbox      bool          `json:"no_sandbox"`
	DisableGPU     bool          `json:"disable_gpu"`
	WindowWidth    int           `json:"window_width"`
	WindowHeight   int           `json:"window_height"`
	UserAgent      string        `json:"user_agent"`
	ExecPath       string        `json:"exec_path"`
	ImplicitWait   time.Duration `json:"implicit_wait"`
	StartupTimeout time.Duration `json:"startup_timeout"`
}

// queryStateJS computes displayed/enabled/text for the node it is called on.
// Displayed follows the usual webdriver notion: rendered, not hidden, non-zero box.
const queryStateJS = `function() {
	const style = window.getComputedStyle(this);
	const rect = this.getBoundingClientRect();
	const displayed = style.display !== 'none' &&
		style.visibility !== 'hidden' &&
		(rect.width > 0 || rect.height > 0);
	return {
		displayed: displayed,
		enabled: !this.disabled,
		text: (this.innerText || '').trim()
	};
}`

// ChromeLauncher launches Chrome through chromedp
type ChromeLauncher struct {
	config ChromeConfig
	logger arbor.ILogger
}

// NewChromeLauncher creates a launcher for the given configuration
func NewChromeLauncher(config ChromeConfig, logger arbor.ILogger) *ChromeLauncher {
	return &ChromeLauncher{config: config, logger: logger}
}

// Launch starts a browser process and verifies it responds before returning.
// The browser lives until Quit is called on the returned driver; ctx only bounds startup.
func (l *ChromeLauncher) Launch(ctx context.Context) (Driver, error) {
	startTime := time.Now()
	cfg := l.config

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.DisableGPU),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	// The allocator must not inherit ctx, otherwise the browser dies with the startup deadline
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			l.logger.Debug().Msgf("chromedp: "+format, args...)
		}),
	)

	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(browserCtx)
	}()

	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case err := <-started:
		if err != nil {
			cancelBrowser()
			cancelAlloc()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-time.After(timeout):
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser did not start within %v", timeout)
	case <-ctx.Done():
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser launch cancelled: %w", ctx.Err())
	}

	d := &ChromeDriver{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		config:        cfg,
		logger:        l.logger,
	}
	chromedp.ListenTarget(browserCtx, d.observe)

	// Responsiveness check, same as the crawler pool does for its instances
	if _, err := d.Title(ctx); err != nil {
		_ = d.Quit(ctx)
		return nil, fmt.Errorf("browser failed responsiveness check: %w", err)
	}

	l.logger.Debug().
		Bool("headless", cfg.Headless).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser launched")

	return d, nil
}

// ChromeDriver implements Driver on top of a chromedp browser context
type ChromeDriver struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	config        ChromeConfig
	logger        arbor.ILogger

	mu         sync.Mutex
	generation uint64
	closed     bool
}

// chromeElement is a node handle tagged with the navigation generation it was resolved in
type chromeElement struct {
	node       *cdp.Node
	locator    Locator
	generation uint64
}

func (e *chromeElement) Locator() Locator {
	return e.locator
}

// scope derives a context from the browser context that also ends when ctx ends
func (d *ChromeDriver) scope(ctx context.Context) (context.Context, context.CancelFunc, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, nil, ErrDriverClosed
	}

	runCtx, cancel := context.WithCancel(d.browserCtx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		prev := cancel
		cancel = func() {
			cancelDeadline()
			prev()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}, nil
}

func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel, err := d.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (d *ChromeDriver) currentGeneration() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}

func (d *ChromeDriver) invalidate() {
	d.mu.Lock()
	d.generation++
	d.mu.Unlock()
}

// observe invalidates handles whenever the top frame commits a new document,
// including navigations started by a click or a script
func (d *ChromeDriver) observe(ev interface{}) {
	if e, ok := ev.(*page.EventFrameNavigated); ok && e.Frame != nil && e.Frame.ParentID == "" {
		d.invalidate()
	}
}

func (d *ChromeDriver) element(el Element) (*chromeElement, error) {
	ce, ok := el.(*chromeElement)
	if !ok || ce == nil || ce.node == nil {
		return nil, fmt.Errorf("element %T was not resolved by this driver", el)
	}
	if ce.generation != d.currentGeneration() {
		return nil, fmt.Errorf("%s: %w", ce.locator, ErrStaleElement)
	}
	return ce, nil
}

// Navigate loads url and invalidates previously resolved elements
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	d.invalidate()

	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Locate resolves the first node matching loc within the implicit wait
func (d *ChromeDriver) Locate(ctx context.Context, loc Locator) (Element, error) {
	if !loc.Valid() {
		return nil, fmt.Errorf("%s: %w", loc, ErrInvalidLocator)
	}

	sel, by := chromeSelector(loc)
	generation := d.currentGeneration()

	waitCtx := ctx
	if d.config.ImplicitWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, d.config.ImplicitWait)
		defer cancel()
	}

	var nodes []*cdp.Node
	err := d.run(waitCtx, chromedp.Nodes(sel, &nodes, by))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("locate %s: %w", loc, ctx.Err())
			}
			return nil, fmt.Errorf("%s: %w", loc, ErrElementNotFound)
		}
		return nil, fmt.Errorf("locate %s: %w", loc, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, ErrElementNotFound)
	}

	return &chromeElement{node: nodes[0], locator: loc, generation: generation}, nil
}

// Query reads the current state of an element
func (d *ChromeDriver) Query(ctx context.Context, el Element) (ElementState, error) {
	ce, err := d.element(el)
	if err != nil {
		return ElementState{}, err
	}

	var state ElementState
	err = d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(ce.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		return chromedp.CallFunctionOn(queryStateJS, &state, onObject(obj.ObjectID)).Do(ctx)
	}))
	if err != nil {
		return ElementState{}, fmt.Errorf("query %s: %w", ce.locator, err)
	}
	return state, nil
}

func onObject(id runtime.RemoteObjectID) chromedp.CallOption {
	return func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
		return p.WithObjectID(id)
	}
}

// Act clicks or types into an element. A click that loads a new document
// invalidates existing handles once the frame commits.
func (d *ChromeDriver) Act(ctx context.Context, el Element, action Action) error {
	ce, err := d.element(el)
	if err != nil {
		return err
	}

	var a chromedp.Action
	switch action.Kind {
	case ActionClick:
		a = chromedp.MouseClickNode(ce.node)
	case ActionType:
		a = chromedp.KeyEventNode(ce.node, action.Text)
	default:
		return fmt.Errorf("unsupported action %d", action.Kind)
	}

	if err := d.run(ctx, a); err != nil {
		return fmt.Errorf("%s %s: %w", action.Kind, ce.locator, err)
	}
	return nil
}

// Title returns the document title
func (d *ChromeDriver) Title(ctx context.Context) (string, error) {
	var title string
	if err := d.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// Location returns the URL of the current document
func (d *ChromeDriver) Location(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// Maximize maximizes the browser window. Headless browsers have no window manager,
// so the viewport is sized to the configured window instead.
func (d *ChromeDriver) Maximize(ctx context.Context) error {
	if d.config.Headless {
		if d.config.WindowWidth <= 0 || d.config.WindowHeight <= 0 {
			return nil
		}
		return d.run(ctx, chromedp.EmulateViewport(int64(d.config.WindowWidth), int64(d.config.WindowHeight)))
	}

	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to get window: %w", err)
		}
		return cdpbrowser.SetWindowBounds(windowID, &cdpbrowser.Bounds{
			WindowState: cdpbrowser.WindowStateMaximized,
		}).Do(ctx)
	}))
}

// Screenshot captures the full page as PNG
func (d *ChromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// PageHTML returns the outer HTML of the document element
func (d *ChromeDriver) PageHTML(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

// Quit closes the browser and releases the allocator. Safe to call more than once.
func (d *ChromeDriver) Quit(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	err := chromedp.Cancel(d.browserCtx)
	d.cancelBrowser()
	d.cancelAlloc()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

func chromeSelector(loc Locator) (string, chromedp.QueryOption) {
	switch loc.Strategy {
	case ByID:
		return "#" + loc.Value, chromedp.ByID
	case ByName:
		return "[name=" + cssAttrValue(loc.Value) + "]", chromedp.ByQuery
	default:
		return loc.Value, chromedp.BySearch
	}
}

var (
	_ Driver      = (*ChromeDriver)(nil)
	_ Snapshotter = (*ChromeDriver)(nil)
	_ Launcher    = (*ChromeLauncher)(nil)
)
