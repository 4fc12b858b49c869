package tags

// Client is a host window tracked by the engine. The engine never touches
// the window itself; it only answers which screen the client belongs to and
// whether it should be visible, both derived from the client's tags.
type Client struct {
	world  *World
	id     uint32
	tags   []*Tag  // Kept in creation-index order.
	screen *Screen // Sticky: only re-derived when the last tag on it leaves.
}

// ID returns the host's window identifier.
func (c *Client) ID() uint32 { return c.id }

// Tags returns the tags the client is on, in creation-index order.
func (c *Client) Tags() []*Tag {
	return append([]*Tag(nil), c.tags...)
}

// Screen returns the screen the client is shown on, or nil for an untagged
// client. The screen is sticky: as long as any of the client's tags is on
// it the client stays there; only when the last one leaves does the client
// follow its lowest-index tag.
func (c *Client) Screen() *Screen {
	return c.screen
}

// resettle re-derives the client's screen after its tag set or tag
// placement changed.
func (c *Client) resettle() {
	if c.screen != nil {
		for _, t := range c.tags {
			if t.screen == c.screen {
				return
			}
		}
	}
	if len(c.tags) == 0 {
		c.screen = nil
		return
	}
	c.screen = c.tags[0].screen
}

// Visible reports whether any of the client's tags is selected.
func (c *Client) Visible() bool {
	for _, t := range c.tags {
		if t.selected {
			return true
		}
	}
	return false
}

func (c *Client) onTag(t *Tag) bool {
	for _, o := range c.tags {
		if o == t {
			return true
		}
	}
	return false
}

// Manage starts tracking a host window. The client starts untagged; the
// host attaches it to a tag next.
func (w *World) Manage(id uint32) *Client {
	c := &Client{world: w, id: id}
	w.clients = append(w.clients, c)
	return c
}

// Unmanage stops tracking c.
func (w *World) Unmanage(c *Client) {
	if c == nil || c.world != w {
		return
	}
	for i, o := range w.clients {
		if o == c {
			w.clients = append(w.clients[:i], w.clients[i+1:]...)
			break
		}
	}
	c.tags = nil
	c.screen = nil
	c.world = nil
}

// Attach puts c on t. Attaching to a tag the client is already on is a
// no-op. If the client's derived screen changes, ClientMoved fires.
func (w *World) Attach(c *Client, t *Tag) error {
	if c == nil || t == nil {
		return ErrNilArg
	}
	if c.world != w || t.world != w {
		return ErrForeign
	}
	if !t.activated {
		return ErrDeactivated
	}
	if c.onTag(t) {
		return nil
	}
	before := c.screen
	i := 0
	for ; i < len(c.tags); i++ {
		if c.tags[i].index > t.index {
			break
		}
	}
	c.tags = append(c.tags, nil)
	copy(c.tags[i+1:], c.tags[i:])
	c.tags[i] = t
	c.resettle()
	if c.screen != before && w.notify != nil {
		w.notify.ClientMoved(c, before, c.screen)
	}
	return nil
}

// Detach removes c from t. Detaching from a tag the client is not on is a
// no-op.
func (w *World) Detach(c *Client, t *Tag) error {
	if c == nil || t == nil {
		return ErrNilArg
	}
	if c.world != w || t.world != w {
		return ErrForeign
	}
	before := c.screen
	for i, o := range c.tags {
		if o == t {
			c.tags = append(c.tags[:i], c.tags[i+1:]...)
			break
		}
	}
	c.resettle()
	if c.screen != before && w.notify != nil {
		w.notify.ClientMoved(c, before, c.screen)
	}
	return nil
}
