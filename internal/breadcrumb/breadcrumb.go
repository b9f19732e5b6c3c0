// Package breadcrumb tracks where the user is: dashboard, project, bug.
package breadcrumb

import "sync"

type Item struct {
	Label string
	Icon  string
	Href  string
}

// Link is an Item as rendered: the last one is the current page and never
// clickable.
type Link struct {
	Item
	Index     int
	Clickable bool
	Current   bool
}

// Home is the trail every session starts with.
var Home = Item{Label: "Dashboard", Icon: "🏠", Href: "/dashboard"}

// Trail is an ordered breadcrumb list, safe for concurrent use.
type Trail struct {
	mu    sync.RWMutex
	items []Item
}

func New() *Trail {
	return &Trail{items: []Item{{Label: Home.Label, Icon: Home.Icon}}}
}

// Set replaces the whole trail. Used on page entry.
func (t *Trail) Set(items ...Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append([]Item(nil), items...)
}

func (t *Trail) Push(item Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, item)
}

// Remove truncates the trail to index+1 items. Out-of-range indexes are
// ignored.
func (t *Trail) Remove(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.items) {
		return
	}
	t.items = t.items[:index+1]
}

// Click handles a click on the item at index: the trail is truncated to it
// and its href returned. Clicking the current page changes nothing and
// returns "".
func (t *Trail) Click(index int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.items)-1 {
		return ""
	}
	href := t.items[index].Href
	t.items = t.items[:index+1]
	return href
}

func (t *Trail) Items() []Item {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Item(nil), t.items...)
}

func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Links renders the trail.
func (t *Trail) Links() []Link {
	items := t.Items()
	out := make([]Link, len(items))
	for i, it := range items {
		last := i == len(items)-1
		out[i] = Link{Item: it, Index: i, Current: last, Clickable: !last && it.Href != ""}
	}
	return out
}
