package ingest

import "sync"

// DOMCapture holds the initial page markup delivered by the driver. The first
// non-empty delivery wins; later ones are ignored so navigation inside the
// session cannot overwrite the starting snapshot.
type DOMCapture struct {
	mu   sync.Mutex
	html string
}

func NewDOMCapture() *DOMCapture {
	return &DOMCapture{}
}

// Set stores the markup if none has been captured yet and reports whether it
// was kept.
func (d *DOMCapture) Set(html string) bool {
	if html == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.html != "" {
		return false
	}
	d.html = html
	return true
}

func (d *DOMCapture) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.html
}
