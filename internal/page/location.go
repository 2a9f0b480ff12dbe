package page

// Location tracks the host page URL plus a back/forward stack, since the host
// is a single-page application and exposes no navigation events of its own.
type Location struct {
	stack []string
	pos   int
}

// NewLocation starts the stack at the given URL.
func NewLocation(start string) *Location {
	return &Location{stack: []string{start}, pos: 0}
}

// Current returns the current URL.
func (l *Location) Current() string {
	if l.pos < 0 || l.pos >= len(l.stack) {
		return ""
	}
	return l.stack[l.pos]
}

// Navigate records a move to url, truncating any forward entries. Navigating
// to the current URL is a no-op.
func (l *Location) Navigate(url string) {
	if url == "" || url == l.Current() {
		return
	}
	l.stack = append(l.stack[:l.pos+1], url)
	l.pos = len(l.stack) - 1
}

// Back steps to the previous URL if there is one.
func (l *Location) Back() (string, bool) {
	if l.pos <= 0 {
		return "", false
	}
	l.pos--
	return l.stack[l.pos], true
}

// Forward steps to the next URL if there is one.
func (l *Location) Forward() (string, bool) {
	if l.pos >= len(l.stack)-1 {
		return "", false
	}
	l.pos++
	return l.stack[l.pos], true
}
