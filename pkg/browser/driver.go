package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"liscraper/pkg/config"
	errs "liscraper/pkg/errors"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
)

// Driver adapts a Chromium session to the harvester's page operations. All
// selector knowledge lives here; the harvester only ever sees counts, raw
// items and page height.
type Driver struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	site     config.SiteConfig
	logger   logger.Logger
}

// NewDriver launches a browser and opens a blank page. Close must be called
// when the run ends.
func NewDriver(site config.SiteConfig) (*Driver, error) {
	l := launcher.New().Headless(site.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to launch browser", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to connect to browser", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		b.Close()
		l.Cleanup()
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to open page", err)
	}

	if site.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: site.UserAgent}); err != nil {
			b.Close()
			l.Cleanup()
			return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to set user agent", err)
		}
	}

	d := &Driver{
		browser:  b,
		page:     page,
		launcher: l,
		site:     site,
		logger:   logger.GetLogger(),
	}
	d.logger.WithField("headless", site.Headless).Debug("Browser launched")
	return d, nil
}

// Close shuts the browser down and cleans up the launcher's temp data.
func (d *Driver) Close() error {
	err := d.browser.Close()
	d.launcher.Cleanup()
	return err
}

// Navigate opens the URL and waits for the load event.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	page := d.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return nil
}

// Login opens the login page, fills the credential form and submits it. A
// no-op when no login URL is configured (public listing).
func (d *Driver) Login(ctx context.Context, email, password string) error {
	if d.site.LoginURL == "" {
		return nil
	}
	if err := d.Navigate(ctx, d.site.LoginURL); err != nil {
		return err
	}

	page := d.page.Context(ctx)
	sel := d.site.Selectors

	if err := d.fill(page, sel.LoginEmail, email); err != nil {
		return fmt.Errorf("failed to fill email field: %w", err)
	}
	if err := d.fill(page, sel.LoginPassword, password); err != nil {
		return fmt.Errorf("failed to fill password field: %w", err)
	}

	submit, err := page.Element(sel.LoginSubmit)
	if err != nil {
		return fmt.Errorf("failed to find submit button: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click submit: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load post-login page: %w", err)
	}
	return nil
}

func (d *Driver) fill(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(value)
}

// WaitForListing blocks until the listing container renders, up to timeout.
func (d *Driver) WaitForListing(ctx context.Context, timeout time.Duration) error {
	page := d.page.Context(ctx).Timeout(timeout)
	if _, err := page.Element(d.site.Selectors.ListingContainer); err != nil {
		return fmt.Errorf("listing container %q not found within %s: %w",
			d.site.Selectors.ListingContainer, timeout, err)
	}
	return nil
}

// ItemCount returns the number of currently rendered item cards.
func (d *Driver) ItemCount(ctx context.Context) (int, error) {
	els, err := d.page.Context(ctx).Elements(d.site.Selectors.ItemCard)
	if err != nil {
		return 0, fmt.Errorf("failed to query item cards: %w", err)
	}
	return len(els), nil
}

// ProbeItems returns the identity fields of the cards at indices from..end,
// in index order. Cards that fail to parse come back empty rather than
// aborting the probe.
func (d *Driver) ProbeItems(ctx context.Context, from int) ([]models.RawItem, error) {
	els, err := d.page.Context(ctx).Elements(d.site.Selectors.ItemCard)
	if err != nil {
		return nil, fmt.Errorf("failed to query item cards: %w", err)
	}
	if from < 0 {
		from = 0
	}
	if from >= len(els) {
		return nil, nil
	}

	items := make([]models.RawItem, 0, len(els)-from)
	for i := from; i < len(els); i++ {
		html, err := els[i].HTML()
		if err != nil {
			return nil, fmt.Errorf("failed to read card %d markup: %w", i, err)
		}
		item, err := parseProbe(html, d.site.Selectors)
		if err != nil {
			d.logger.WithError(err).WithField("index", i).Warn("Card probe parse failed")
			item = models.RawItem{}
		}
		items = append(items, item)
	}
	return items, nil
}

// ExtractItem fully parses the card at the given index.
func (d *Driver) ExtractItem(ctx context.Context, index int) (models.RawItem, error) {
	els, err := d.page.Context(ctx).Elements(d.site.Selectors.ItemCard)
	if err != nil {
		return models.RawItem{}, fmt.Errorf("failed to query item cards: %w", err)
	}
	if index < 0 || index >= len(els) {
		return models.RawItem{}, errs.New(errs.ErrorTypeExtraction,
			fmt.Sprintf("card index %d out of range (%d cards visible)", index, len(els)))
	}

	html, err := els[index].HTML()
	if err != nil {
		return models.RawItem{}, fmt.Errorf("failed to read card %d markup: %w", index, err)
	}
	item, err := parseCard(html, d.site.Selectors)
	if err != nil {
		return models.RawItem{}, errs.Wrap(errs.ErrorTypeExtraction, "card parse failed", err)
	}
	return item, nil
}

// TriggerLoadMore scrolls to the bottom of the page so the listing appends
// its next chunk of items.
func (d *Driver) TriggerLoadMore(ctx context.Context) error {
	_, err := d.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	if err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return nil
}

// Height returns the page's current scroll height.
func (d *Driver) Height(ctx context.Context) (float64, error) {
	res, err := d.page.Context(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, fmt.Errorf("failed to measure page height: %w", err)
	}
	return res.Value.Num(), nil
}
