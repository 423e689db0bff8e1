package portal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/nagazul/ttclock/internal/domain/clock"
	"github.com/nagazul/ttclock/internal/logger"
)

const (
	// launchAttempts bounds browser start retries. Only the launch itself is
	// retried, never clock actions.
	launchAttempts  = 3
	launchRetryBase = 5 * time.Second

	// settleDelay gives the portal time to re-render after a button press
	// before the page is read back.
	settleDelay = time.Second

	// staySignedInTimeout bounds the wait for the optional "stay signed in"
	// prompt. Its absence is not an error.
	staySignedInTimeout = 10 * time.Second

	screenshotTimeout = 10 * time.Second

	screenshotDirPerm  = 0o755
	screenshotFilePerm = 0o644

	screenshotTimeLayout = "20060102_150405"
)

// Selectors of the Microsoft sign-in flow and the clocking application.
const (
	selectorLoginEmail    = `input[name="loginfmt"]`
	selectorLoginNext     = `#idSIButton9`
	selectorLoginPassword = `#passwordInput`
	selectorLoginSubmit   = `#submitButton`
	selectorStaySignedIn  = `#idSIButton9`
	selectorAppRoot       = `app-root`
	selectorClockWidget   = `app-clock`
	selectorClockButtons  = `app-clock button`
	selectorClockingTable = `table.clocking-info`
)

// jsCollectRows scrapes the label/value pairs of the clocking-info table.
const jsCollectRows = `Array.from(document.querySelectorAll('table.clocking-info tbody tr')).map(function(tr) {
	var tds = tr.querySelectorAll('td');
	return tds.length >= 2 ? [tds[0].innerText.trim(), tds[1].innerText.trim()] : [];
}).filter(function(row) { return row.length === 2; })`

// jsCollectButtons reports the disabled state of every clock button.
const jsCollectButtons = `Array.from(document.querySelectorAll('app-clock button')).map(function(b) {
	return b.hasAttribute('disabled');
})`

// jsRemoveModals hides announcement overlays that block the clock buttons
// and returns how many elements it touched.
const jsRemoveModals = `(function() {
	var removed = 0;
	document.querySelectorAll('[class*="modal"]').forEach(function(el) {
		el.style.display = 'none';
		removed++;
	});
	var backdrop = document.querySelector('div.modal-backdrop');
	if (backdrop) { backdrop.remove(); removed++; }
	var container = document.querySelector('div.modal-container');
	if (container) { container.remove(); removed++; }
	return removed;
})()`

// SessionOptions configures a browser session against the portal.
type SessionOptions struct {
	// URL is the address of the time tracking portal.
	URL string
	// Username and Password feed the Microsoft sign-in flow.
	Username string
	Password string
	// Timeout bounds every individual browser step.
	Timeout time.Duration
	// Headless controls whether the browser renders a window.
	Headless bool
	// ScreenshotDir receives failure screenshots. Empty means the current
	// working directory.
	ScreenshotDir string
	// Verbosity is the application verbosity. The browser log level derives
	// from it and stays quieter than the application's.
	Verbosity int
}

// Session drives one signed-in browser for the duration of an invocation.
// It launches lazily on first use, keeps the authenticated tab across calls
// and must be released with Close. A Session is not safe for concurrent use.
type Session struct {
	opts SessionOptions
	log  *zap.SugaredLogger

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	tab           context.Context

	ready    bool
	loggedIn bool
}

var _ Driver = (*Session)(nil)

// NewSession prepares a session. No browser starts until the first call
// that needs one.
func NewSession(opts SessionOptions) *Session {
	driverLog := logger.Logger().
		Desugar().
		WithOptions(logger.WithLevel(logger.DriverVerbosityLevel(opts.Verbosity))).
		Named("chromedp").
		Sugar()

	return &Session{
		opts: opts,
		log:  driverLog,
	}
}

// ReadStatus signs in if needed and returns a fresh snapshot of the page.
func (s *Session) ReadStatus(ctx context.Context) (clock.Snapshot, error) {
	if err := s.prepare(ctx); err != nil {
		return clock.Snapshot{}, err
	}

	return s.readSnapshot()
}

// Perform presses the button for the action, lets the portal settle and
// returns the snapshot observed afterwards. A result that does not match
// the action's target is logged and captured but not an error; the caller
// decides what a drifted outcome means.
func (s *Session) Perform(ctx context.Context, action clock.Action) (clock.Snapshot, error) {
	index, ok := buttonIndexFor(action)
	if !ok {
		return clock.Snapshot{}, newError(CauseProtocol, "perform action",
			fmt.Errorf("action %q maps to no clock button", action))
	}

	if err := s.prepare(ctx); err != nil {
		return clock.Snapshot{}, err
	}

	var disabled []bool
	if err := s.run("read clock buttons", CauseElementNotFound,
		chromedp.WaitVisible(selectorClockButtons, chromedp.ByQuery),
		chromedp.Evaluate(jsCollectButtons, &disabled),
	); err != nil {
		return clock.Snapshot{}, err
	}

	if len(disabled) <= index {
		err := fmt.Errorf("found %d clock buttons, want at least %d", len(disabled), index+1)
		s.screenshot("clock_buttons_missing")

		return clock.Snapshot{}, newError(CauseElementNotFound, "read clock buttons", err)
	}

	s.log.Infof("Pressing %s button", action)

	pressJS := fmt.Sprintf("document.querySelectorAll('app-clock button')[%d].click()", index)
	if err := s.run("press clock button", CauseElementNotFound,
		chromedp.Evaluate(pressJS, nil),
		chromedp.Sleep(settleDelay),
	); err != nil {
		return clock.Snapshot{}, err
	}

	snapshot, err := s.readSnapshot()
	if err != nil {
		return clock.Snapshot{}, err
	}

	if want := action.Target(); snapshot.Status != want {
		s.log.Warnw("Status after action does not match its target",
			"action", action,
			"want", want,
			"got", snapshot.Status)
		s.screenshot("status_mismatch")
	}

	return snapshot, nil
}

// Close releases the browser. Safe to call on a session that never started.
func (s *Session) Close() {
	if s.tab != nil {
		// Graceful shutdown so Chrome does not linger as a zombie.
		//nolint:errcheck // Closing best-effort, the process ends either way.
		chromedp.Cancel(s.tab)
	}

	if s.browserCancel != nil {
		s.browserCancel()
	}

	if s.allocCancel != nil {
		s.allocCancel()
	}

	s.tab = nil
	s.ready = false
	s.loggedIn = false
}

// prepare makes sure a browser is running and the portal is signed in.
func (s *Session) prepare(ctx context.Context) error {
	if err := s.start(ctx); err != nil {
		return err
	}

	if err := s.login(); err != nil {
		return err
	}

	return s.removeModals()
}

// start launches the browser, retrying with exponential backoff. Launch
// failures are environmental and transient more often than not; actions
// against the portal are never retried.
func (s *Session) start(ctx context.Context) error {
	if s.ready {
		return nil
	}

	var lastErr error

	for attempt := 1; attempt <= launchAttempts; attempt++ {
		if attempt > 1 {
			backoff := launchRetryBase << (attempt - 2)
			s.log.Infof("Retrying browser launch in %s (attempt %d of %d)", backoff, attempt, launchAttempts)

			select {
			case <-ctx.Done():
				return newError(CauseProtocol, "launch browser", ctx.Err())
			case <-time.After(backoff):
			}
		}

		if err := s.launch(ctx); err != nil {
			lastErr = err

			s.log.Warnf("Browser launch failed: %v", err)

			continue
		}

		s.ready = true

		return nil
	}

	return newError(CauseProtocol, "launch browser", lastErr)
}

func (s *Session) launch(ctx context.Context) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)

	ctxOpts := []chromedp.ContextOption{
		chromedp.WithLogf(s.log.Infof),
		chromedp.WithErrorf(s.log.Errorf),
	}
	// Protocol dumps are massive, so they are generated only when the
	// driver log level actually shows them.
	if s.opts.Verbosity >= 3 {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(s.log.Debugf))
	}

	tab, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	// An empty Run boots the browser so launch failures surface here
	// instead of inside the first portal step.
	if err := chromedp.Run(tab); err != nil {
		browserCancel()
		allocCancel()

		return fmt.Errorf("boot browser: %w", err)
	}

	s.allocCancel = allocCancel
	s.browserCancel = browserCancel
	s.tab = tab

	return nil
}

func (s *Session) allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.WindowSize(1920, 1080),
	)
}

// login walks the Microsoft sign-in flow and waits for the clocking
// application to load. It runs once per session.
func (s *Session) login() error {
	if s.loggedIn {
		return nil
	}

	s.log.Infof("Navigating to %s", s.opts.URL)

	if err := s.run("open portal", CauseNetwork,
		chromedp.Navigate(s.opts.URL),
	); err != nil {
		return err
	}

	s.log.Debugf("Waiting for sign-in form")

	if err := s.run("enter username", CauseAuth,
		chromedp.WaitVisible(selectorLoginEmail, chromedp.ByQuery),
		chromedp.SendKeys(selectorLoginEmail, s.opts.Username, chromedp.ByQuery),
		chromedp.Click(selectorLoginNext, chromedp.ByQuery),
	); err != nil {
		return err
	}

	if err := s.run("enter password", CauseAuth,
		chromedp.WaitVisible(selectorLoginPassword, chromedp.ByQuery),
		chromedp.SendKeys(selectorLoginPassword, s.opts.Password, chromedp.ByQuery),
		chromedp.Click(selectorLoginSubmit, chromedp.ByQuery),
	); err != nil {
		return err
	}

	s.confirmStaySignedIn()

	if err := s.run("load clocking application", CauseElementNotFound,
		chromedp.WaitReady(selectorAppRoot, chromedp.ByQuery),
		chromedp.WaitReady(selectorClockWidget, chromedp.ByQuery),
	); err != nil {
		return err
	}

	s.log.Infof("Signed in to the portal")

	s.loggedIn = true

	return nil
}

// confirmStaySignedIn clicks the optional "stay signed in" prompt. Many
// tenants skip it, so a missing prompt is only worth a debug line.
func (s *Session) confirmStaySignedIn() {
	stepCtx, cancel := context.WithTimeout(s.tab, staySignedInTimeout)
	defer cancel()

	err := chromedp.Run(stepCtx,
		chromedp.WaitVisible(selectorStaySignedIn, chromedp.ByQuery),
		chromedp.Click(selectorStaySignedIn, chromedp.ByQuery),
	)
	if err != nil {
		s.log.Debugf("No stay signed in prompt detected: %v", err)

		return
	}

	s.log.Debugf("Confirmed stay signed in prompt")
}

// removeModals hides announcement overlays so they cannot intercept clicks.
func (s *Session) removeModals() error {
	var removed int

	if err := s.run("remove modal overlays", CauseProtocol,
		chromedp.Evaluate(jsRemoveModals, &removed),
	); err != nil {
		return err
	}

	if removed > 0 {
		s.log.Debugf("Removed %d modal elements", removed)
	}

	return nil
}

// readSnapshot scrapes the clocking table and button states and decodes
// them into a snapshot.
func (s *Session) readSnapshot() (clock.Snapshot, error) {
	var (
		rows     [][]string
		disabled []bool
	)

	if err := s.run("read clocking table", CauseElementNotFound,
		chromedp.WaitReady(selectorClockingTable, chromedp.ByQuery),
		chromedp.Evaluate(jsCollectRows, &rows),
		chromedp.Evaluate(jsCollectButtons, &disabled),
	); err != nil {
		return clock.Snapshot{}, err
	}

	snapshot, err := snapshotFromPage(rows, disabled, time.Now())
	if err != nil {
		s.screenshot("page_parse_error")

		return clock.Snapshot{}, err
	}

	s.log.Debugw("Read portal state",
		"status", snapshot.Status,
		"first_clock", snapshot.FirstClock,
		"time_worked", clock.FormatClock(snapshot.TimeWorked),
		"time_left", clock.FormatClock(snapshot.TimeLeft),
		"date", snapshot.Date)

	return snapshot, nil
}

// run executes one logical portal step under the step timeout. Failures are
// classified, captured as a screenshot and wrapped into *Error.
func (s *Session) run(op string, cause Cause, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(s.tab, s.opts.Timeout)
	defer cancel()

	if err := chromedp.Run(stepCtx, actions...); err != nil {
		cause = refineCause(cause, err)

		s.log.Errorf("Step %q failed: %v", op, err)
		s.screenshot(strings.ReplaceAll(op, " ", "_") + "_error")

		return newError(cause, op, err)
	}

	return nil
}

// refineCause sharpens the fallback classification from the error itself.
// Chrome network errors carry a net:: marker, a JavaScript exception means
// the page lacked an element the script touched, and a navigation that ran
// out of time is a navigation timeout regardless of the step.
func refineCause(fallback Cause, err error) Cause {
	var exc *cdpruntime.ExceptionDetails
	if errors.As(err, &exc) {
		return CauseElementNotFound
	}

	msg := err.Error()

	switch {
	case strings.Contains(msg, "net::ERR_NAME_NOT_RESOLVED"),
		strings.Contains(msg, "net::ERR_CONNECTION"),
		strings.Contains(msg, "net::ERR_INTERNET_DISCONNECTED"):
		return CauseNetwork
	case fallback == CauseNetwork && errors.Is(err, context.DeadlineExceeded):
		return CauseNavigationTimeout
	}

	return fallback
}

// screenshot captures the current page for diagnostics. Best effort only, a
// capture failure must never mask the error that triggered it.
func (s *Session) screenshot(prefix string) {
	if s.tab == nil {
		return
	}

	shotCtx, cancel := context.WithTimeout(s.tab, screenshotTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(shotCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		s.log.Debugf("Screenshot capture failed: %v", err)

		return
	}

	dir := s.opts.ScreenshotDir
	if dir == "" {
		dir = "."
	} else if err := os.MkdirAll(dir, screenshotDirPerm); err != nil {
		s.log.Debugf("Screenshot directory unavailable: %v", err)

		return
	}

	name := fmt.Sprintf("%s_%s.png", prefix, time.Now().Format(screenshotTimeLayout))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, buf, screenshotFilePerm); err != nil {
		s.log.Debugf("Screenshot write failed: %v", err)

		return
	}

	s.log.Infof("Screenshot saved to %s", path)
}
