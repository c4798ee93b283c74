package discovery

import (
	"context"
	"fmt"

	"CompetitorScanner/internal/ports"
)

// fakeSession scripts listing views as per-scroll element batches. After the
// scripted batches are exhausted the last batch repeats, which is how a real
// page behaves once scrolled to the bottom.
type fakeSession struct {
	pages       map[string][][]ports.DOMElement
	failURLs    map[string]error
	current     string
	scrolls     int
	navigations []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:    map[string][][]ports.DOMElement{},
		failURLs: map[string]error{},
	}
}

func (f *fakeSession) script(url string, batches ...[]ports.DOMElement) {
	f.pages[url] = batches
}

func (f *fakeSession) fail(url string, err error) {
	f.failURLs[url] = err
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.navigations = append(f.navigations, url)
	if err, ok := f.failURLs[url]; ok {
		return err
	}
	if _, ok := f.pages[url]; !ok {
		return fmt.Errorf("no page scripted for %s", url)
	}
	f.current = url
	f.scrolls = 0
	return nil
}

func (f *fakeSession) ReadDOMElements(ctx context.Context) ([]ports.DOMElement, error) {
	batches := f.pages[f.current]
	if len(batches) == 0 {
		return nil, nil
	}
	idx := f.scrolls
	if idx >= len(batches) {
		idx = len(batches) - 1
	}
	return batches[idx], nil
}

func (f *fakeSession) Scroll(ctx context.Context, dx, dy int) error {
	f.scrolls++
	return nil
}

func profileLinks(handles ...string) []ports.DOMElement {
	elements := make([]ports.DOMElement, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, ports.DOMElement{Href: "/" + h})
	}
	return elements
}

func handleRange(prefix string, n int) []string {
	handles := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		handles = append(handles, fmt.Sprintf("%s%02d", prefix, i))
	}
	return handles
}
