package tags

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Traversal selects a direction when walking a screen's tag list.
type Traversal int

const (
	Next Traversal = iota
	Prev
)

var (
	// ErrNoScreens is returned when tags are added before any screen exists.
	ErrNoScreens = errors.New("tags: no screens")
	// ErrLastScreen is returned when removing the only remaining screen.
	ErrLastScreen = errors.New("tags: cannot remove the last screen")
	// ErrLastTag is returned when deleting a screen's only tag.
	ErrLastTag = errors.New("tags: cannot delete a screen's last tag")
	// ErrTagNotEmpty is returned when deleting a tag that still has clients.
	ErrTagNotEmpty = errors.New("tags: tag still has clients")
	// ErrDeactivated is returned when operating on a deleted tag.
	ErrDeactivated = errors.New("tags: tag is deactivated")
	// ErrNilArg is returned when a required tag or screen is nil.
	ErrNilArg = errors.New("tags: nil tag or screen")
	// ErrForeign is returned when a tag, screen or client belongs to
	// another World.
	ErrForeign = errors.New("tags: object belongs to a different world")
	// ErrEmptyName is returned for a tag spec with an empty name.
	ErrEmptyName = errors.New("tags: tag name is empty")
)

// Notify receives callbacks after the tag graph has changed. The host uses
// them to re-place client windows and to advertise the new state. Callbacks
// always observe a consistent graph: they fire after the mutation completed.
// All methods are called on the goroutine that invoked the mutating
// operation; *World is not safe for concurrent use.
type Notify interface {
	// TagMoved reports that t was reassigned from one screen to another.
	TagMoved(t *Tag, from, to *Screen)
	// SelectionChanged reports that the set of selected tags on s changed.
	SelectionChanged(s *Screen)
	// ClientMoved reports that a client's derived screen changed because
	// a tag it is on moved, or because its tag set changed.
	ClientMoved(c *Client, from, to *Screen)
}

// World owns the screens, the tag ring and the managed clients. The ring is
// kept in creation order; a tag's creation index is the ordering key within
// each screen's tag list, so reassigning a tag to another screen never
// reorders the tags that did not move.
type World struct {
	screens []*Screen
	clients []*Client
	anchor  Tag // The anchor of a doubly-linked ring of tags.
	notify  Notify
	log     *logrus.Entry

	nextTagIndex int
	nextScreenID int
}

// New returns an empty World. n may be nil if the host does not need
// callbacks.
func New(n Notify) *World {
	w := &World{
		notify: n,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	w.anchor.link[Next] = &w.anchor
	w.anchor.link[Prev] = &w.anchor
	return w
}

// SetLogger replaces the World's log entry. Passing nil resets it to the
// standard logger.
func (w *World) SetLogger(e *logrus.Entry) {
	if e == nil {
		e = logrus.NewEntry(logrus.StandardLogger())
	}
	w.log = e
}

// AddScreen appends a new screen context and returns it. Screen IDs are
// 1-based and never reused.
func (w *World) AddScreen() *Screen {
	w.nextScreenID++
	s := &Screen{world: w, id: w.nextScreenID}
	w.screens = append(w.screens, s)
	w.log.WithField("screen", s.id).Debug("screen added")
	return s
}

// Screens returns the live screens in creation order.
func (w *World) Screens() []*Screen {
	return append([]*Screen(nil), w.screens...)
}

// Tags returns every activated tag, in creation-index order.
func (w *World) Tags() (list []*Tag) {
	for t := w.anchor.link[Next]; t != &w.anchor; t = t.link[Next] {
		list = append(list, t)
	}
	return list
}

// Screen is one physical screen context. It carries a selection history so
// that moving the only selected tag away can fall back to what the user was
// looking at before.
type Screen struct {
	world   *World
	id      int
	history [][]*Tag // Selection snapshots, most recent last.
}

// ID returns the screen's stable 1-based identifier.
func (s *Screen) ID() int { return s.id }

// Tags returns the tags currently on s, in creation-index order.
func (s *Screen) Tags() (list []*Tag) {
	if s.world == nil {
		return nil
	}
	for t := s.world.anchor.link[Next]; t != &s.world.anchor; t = t.link[Next] {
		if t.screen == s {
			list = append(list, t)
		}
	}
	return list
}

// Selected returns the selected tags on s, in creation-index order.
func (s *Screen) Selected() (list []*Tag) {
	for _, t := range s.Tags() {
		if t.selected {
			list = append(list, t)
		}
	}
	return list
}

// Tag is a shareable virtual desktop. It lives on exactly one screen at a
// time; which screen can change at any point through Move, ViewOnly,
// ViewToggle or screen removal.
type Tag struct {
	link      [2]*Tag
	world     *World
	screen    *Screen
	name      string
	index     int
	selected  bool
	activated bool
}

// Name returns the tag's display name.
func (t *Tag) Name() string { return t.name }

// Index returns the tag's immutable creation index (1-based). Indices are
// never reused, so they order tags within any screen's list.
func (t *Tag) Index() int { return t.index }

// Screen returns the screen the tag is currently on, or nil if the tag has
// been deleted.
func (t *Tag) Screen() *Screen { return t.screen }

// Selected reports whether the tag is part of its screen's selection.
func (t *Tag) Selected() bool { return t.selected }

// Activated reports whether the tag is live. Delete deactivates a tag.
func (t *Tag) Activated() bool { return t.activated }

// Spec describes one tag to create. Screen is 1-based; values outside the
// range of existing screens clamp to the nearest valid screen.
type Spec struct {
	Name     string
	Screen   int
	Selected bool
}
