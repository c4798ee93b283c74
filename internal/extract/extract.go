package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
)

// reservedRoutes are navigation/UI paths that render as single-segment hrefs
// but never identify an account.
var reservedRoutes = map[string]struct{}{
	"home": {}, "explore": {}, "notifications": {}, "messages": {},
	"search": {}, "settings": {}, "compose": {}, "login": {}, "logout": {},
	"signup": {}, "about": {}, "privacy": {}, "tos": {}, "i": {},
	"intent": {}, "share": {}, "hashtag": {}, "help": {}, "jobs": {},
	"account": {}, "follower_requests": {},
}

var (
	handleExpr   = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
	followerExpr = regexp.MustCompile(`([\d.,]+)\s*([KkMm]?)\s*[Ff]ollowers?`)
)

// Handles extracts account identifiers from a raw element batch. An element
// with an href of the form "/<identifier>" (single path segment, not a
// reserved route) yields that identifier; an element whose text starts with
// "@" yields the token up to the first whitespace. Both rules run on every
// batch; results are unioned in encounter order and deduplicated against the
// caller's seen-set, scoped to one list-building operation. An empty batch
// degrades to an empty sequence, never an error.
func Handles(elements []ports.DOMElement, seen map[string]struct{}) []string {
	if seen == nil {
		seen = map[string]struct{}{}
	}

	handles := make([]string, 0, len(elements))
	for _, el := range elements {
		for _, candidate := range candidatesFrom(el) {
			if accept(candidate, seen) {
				handles = append(handles, candidate)
			}
		}
	}

	return handles
}

// Records extracts follower records, pairing each newly seen handle with a
// best-effort follower count parsed from the same element's text.
func Records(elements []ports.DOMElement, seen map[string]struct{}) []domain.FollowerRecord {
	if seen == nil {
		seen = map[string]struct{}{}
	}

	records := make([]domain.FollowerRecord, 0, len(elements))
	for _, el := range elements {
		count := FollowerCount(el.Text)
		for _, candidate := range candidatesFrom(el) {
			if accept(candidate, seen) {
				records = append(records, domain.FollowerRecord{
					Username:      candidate,
					FollowerCount: count,
				})
			}
		}
	}

	return records
}

// FollowerCount parses a best-effort follower count from rendered text
// ("1.2K followers" → 1200, "1,234 followers" → 1234). Returns nil when no
// recognizable pattern is present; unknown is deliberately distinct from zero.
func FollowerCount(text string) *int64 {
	match := followerExpr.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	raw := match[1]
	suffix := strings.ToUpper(match[2])

	// Plain counts render with thousands separators, abbreviated ones with a
	// decimal point.
	if suffix == "" {
		raw = strings.ReplaceAll(raw, ",", "")
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}

	switch suffix {
	case "K":
		value *= 1_000
	case "M":
		value *= 1_000_000
	}

	count := int64(value)
	return &count
}

func candidatesFrom(el ports.DOMElement) []string {
	candidates := make([]string, 0, 2)
	if h := fromHref(el.Href); h != "" {
		candidates = append(candidates, h)
	}
	if h := fromText(el.Text); h != "" {
		candidates = append(candidates, h)
	}
	return candidates
}

func fromHref(href string) string {
	if href == "" || !strings.HasPrefix(href, "/") {
		return ""
	}
	segment := strings.TrimPrefix(href, "/")
	if segment == "" || strings.ContainsAny(segment, "/?#") {
		return ""
	}
	return segment
}

func fromText(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "@") {
		return ""
	}
	token := strings.TrimPrefix(trimmed, "@")
	if idx := strings.IndexFunc(token, unicode.IsSpace); idx >= 0 {
		token = token[:idx]
	}
	return token
}

func accept(handle string, seen map[string]struct{}) bool {
	if !handleExpr.MatchString(handle) {
		return false
	}
	if _, reserved := reservedRoutes[strings.ToLower(handle)]; reserved {
		return false
	}
	if _, dup := seen[handle]; dup {
		return false
	}
	seen[handle] = struct{}{}
	return true
}
