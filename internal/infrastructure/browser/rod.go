package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"CompetitorScanner/internal/ports"
)

const (
	navigateTimeout = 30 * time.Second
	settleDuration  = 500 * time.Millisecond
)

// blockedResourceTypes lists network resource types the session skips to
// save bandwidth and speed up page loads. Stylesheets stay enabled: the
// virtualized follower lists need layout to keep loading rows.
var blockedResourceTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeFont,
	proto.NetworkResourceTypeMedia,
}

// RodSession drives one headless Chromium tab through the discovery engine's
// navigate/read/scroll cycle. Create with NewRodSession; Close releases the
// tab and the browser process.
type RodSession struct {
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
}

var _ ports.BrowserSession = (*RodSession)(nil)

// NewRodSession launches a headless Chromium process via Rod's launcher and
// opens a stealth tab on it.
func NewRodSession() (*RodSession, error) {
	u, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch headless browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to headless browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("create tab: %w", err)
	}

	router := page.HijackRequests()
	for _, rt := range blockedResourceTypes {
		_ = router.Add("*", rt, func(h *rod.Hijack) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()

	return &RodSession{browser: browser, page: page, router: router}, nil
}

// Navigate loads url in the session tab and waits for the DOM to stabilize.
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	if err := page.Timeout(navigateTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	_ = page.WaitStable(settleDuration)
	return nil
}

// ReadDOMElements returns the current page's link elements. User-list cells
// are surfaced first with their full cell text so callers can pair a profile
// link with the numbers printed next to it.
func (s *RodSession) ReadDOMElements(ctx context.Context) ([]ports.DOMElement, error) {
	page := s.page.Context(ctx)
	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	return parseElements(html)
}

// Scroll moves the viewport by (dx, dy) and waits for new rows to settle.
func (s *RodSession) Scroll(ctx context.Context, dx, dy int) error {
	page := s.page.Context(ctx)
	if _, err := page.Eval(`(x, y) => window.scrollBy(x, y)`, dx, dy); err != nil {
		return fmt.Errorf("scroll page: %w", err)
	}
	_ = page.WaitStable(settleDuration)
	return nil
}

// Close shuts down the tab and the headless browser process.
func (s *RodSession) Close() error {
	var first error
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			first = err
		}
	}
	if s.page != nil {
		if err := s.page.Close(); err != nil && first == nil {
			first = err
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func parseElements(html string) ([]ports.DOMElement, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	var elements []ports.DOMElement
	doc.Find("div[data-testid=UserCell], div[data-testid=cellInnerDiv]").Each(func(_ int, cell *goquery.Selection) {
		href, ok := cell.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		elements = append(elements, ports.DOMElement{
			Href: href,
			Text: strings.Join(strings.Fields(cell.Text()), " "),
		})
	})
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())
		if href == "" && text == "" {
			return
		}
		elements = append(elements, ports.DOMElement{Href: href, Text: text})
	})
	return elements, nil
}
