package tags

import (
	"fmt"
	"testing"
)

// recorder captures Notify callbacks as strings so tests can assert on both
// content and order.
type recorder struct {
	events []string
}

func sid(s *Screen) int {
	if s == nil {
		return 0
	}
	return s.ID()
}

func (r *recorder) TagMoved(t *Tag, from, to *Screen) {
	r.events = append(r.events, fmt.Sprintf("tag %s %d->%d", t.Name(), sid(from), sid(to)))
}

func (r *recorder) SelectionChanged(s *Screen) {
	r.events = append(r.events, fmt.Sprintf("sel %d", sid(s)))
}

func (r *recorder) ClientMoved(c *Client, from, to *Screen) {
	r.events = append(r.events, fmt.Sprintf("client %d %d->%d", c.ID(), sid(from), sid(to)))
}

func names(ts []*Tag) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name()
	}
	return out
}

func wantNames(t *testing.T, got []*Tag, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got tags %v, want %v", names(got), want)
	}
	for i := range want {
		if got[i].Name() != want[i] {
			t.Fatalf("got tags %v, want %v", names(got), want)
		}
	}
}

// twoScreens builds a world with two screens and tags a,b on screen 1 and
// c,d on screen 2, with a and c selected.
func twoScreens(t *testing.T, n Notify) (*World, *Screen, *Screen, map[string]*Tag) {
	t.Helper()
	w := New(n)
	s1 := w.AddScreen()
	s2 := w.AddScreen()
	created, err := w.Add([]Spec{
		{Name: "a", Screen: 1, Selected: true},
		{Name: "b", Screen: 1},
		{Name: "c", Screen: 2, Selected: true},
		{Name: "d", Screen: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	byName := make(map[string]*Tag)
	for _, tag := range created {
		byName[tag.Name()] = tag
	}
	return w, s1, s2, byName
}

func TestAdd(t *testing.T) {
	w := New(nil)
	s1 := w.AddScreen()
	s2 := w.AddScreen()

	created, err := w.Add([]Spec{
		{Name: "web", Screen: 1, Selected: true},
		{Name: "mail", Screen: 2},
		{Name: "irc", Screen: 99}, // Clamps to screen 2.
		{Name: "misc", Screen: 0}, // Clamps to screen 1.
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 4 {
		t.Fatalf("created %d tags, want 4", len(created))
	}
	wantNames(t, s1.Tags(), "web", "misc")
	wantNames(t, s2.Tags(), "mail", "irc")

	// Screen 2 had no selected spec: the lowest-index tag is selected.
	wantNames(t, s1.Selected(), "web")
	wantNames(t, s2.Selected(), "mail")

	for i, tag := range created {
		if tag.Index() != i+1 {
			t.Errorf("tag %s index = %d, want %d", tag.Name(), tag.Index(), i+1)
		}
	}
}

func TestAddValidation(t *testing.T) {
	w := New(nil)
	if _, err := w.Add([]Spec{{Name: "x"}}); err != ErrNoScreens {
		t.Fatalf("Add without screens: err = %v, want ErrNoScreens", err)
	}
	s := w.AddScreen()
	if _, err := w.Add([]Spec{{Name: "ok"}, {Name: ""}}); err != ErrEmptyName {
		t.Fatalf("Add with empty name: err = %v, want ErrEmptyName", err)
	}
	// Validation failed before any mutation.
	if got := s.Tags(); len(got) != 0 {
		t.Fatalf("failed Add left %v behind", names(got))
	}
}

func TestMovePreservesOrdering(t *testing.T) {
	w, s1, s2, byName := twoScreens(t, nil)

	// Move c (index 3) to screen 1: it must land between b (2) and
	// nothing, i.e. after b, and d keeps its place on screen 2.
	if err := w.Move(byName["c"], s1); err != nil {
		t.Fatal(err)
	}
	wantNames(t, s1.Tags(), "a", "b", "c")
	wantNames(t, s2.Tags(), "d")

	// Move a (index 1) to screen 2: it sorts before d (index 4).
	if err := w.Move(byName["a"], s2); err != nil {
		t.Fatal(err)
	}
	wantNames(t, s1.Tags(), "b", "c")
	wantNames(t, s2.Tags(), "a", "d")
}

func TestMoveFallbackSelection(t *testing.T) {
	w, s1, _, byName := twoScreens(t, nil)
	s2 := w.Screens()[1]

	// a is screen 1's only selected tag. Moving it away must leave a
	// selected tag behind: with no history, the lowest-index tag.
	if err := w.Move(byName["a"], s2); err != nil {
		t.Fatal(err)
	}
	wantNames(t, s1.Selected(), "b")
	// The moved tag stays selected on arrival; screen 2 now has two
	// selected tags, which is legal until a ViewOnly collapses it.
	wantNames(t, s2.Selected(), "a", "c")
}

func TestMoveFallbackUsesHistory(t *testing.T) {
	w, s1, s2, byName := twoScreens(t, nil)

	// View b, then a: history on screen 1 now remembers {b}.
	if err := w.ViewOnly(byName["b"], s1); err != nil {
		t.Fatal(err)
	}
	if err := w.ViewOnly(byName["a"], s1); err != nil {
		t.Fatal(err)
	}
	// Moving a away restores {b} from history rather than defaulting.
	if err := w.Move(byName["a"], s2); err != nil {
		t.Fatal(err)
	}
	wantNames(t, s1.Selected(), "b")
}

func TestMoveNoOpAndErrors(t *testing.T) {
	w, s1, _, byName := twoScreens(t, nil)

	r := &recorder{}
	w.notify = r
	if err := w.Move(byName["a"], s1); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 0 {
		t.Fatalf("same-screen move fired callbacks: %v", r.events)
	}

	if err := w.Move(nil, s1); err != ErrNilArg {
		t.Fatalf("Move(nil): err = %v, want ErrNilArg", err)
	}
	other := New(nil)
	otherScreen := other.AddScreen()
	if err := w.Move(byName["a"], otherScreen); err != ErrForeign {
		t.Fatalf("Move to foreign screen: err = %v, want ErrForeign", err)
	}
}

func TestMoveCallbackOrderAndConsistency(t *testing.T) {
	r := &recorder{}
	w, _, s2, byName := twoScreens(t, r)
	r.events = nil

	c := w.Manage(42)
	if err := w.Attach(c, byName["a"]); err != nil {
		t.Fatal(err)
	}
	r.events = nil

	if err := w.Move(byName["a"], s2); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"sel 1",          // Fallback selection on the old screen.
		"tag a 1->2",     // Then the move itself.
		"client 42 1->2", // Then the client that followed.
	}
	if len(r.events) != len(want) {
		t.Fatalf("events = %v, want %v", r.events, want)
	}
	for i := range want {
		if r.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", r.events, want)
		}
	}
}

func TestMoveClientAnchoredToOldScreenStays(t *testing.T) {
	r := &recorder{}
	w, _, s2, byName := twoScreens(t, r)

	c := w.Manage(7)
	if err := w.Attach(c, byName["a"]); err != nil {
		t.Fatal(err)
	}
	if err := w.Attach(c, byName["b"]); err != nil {
		t.Fatal(err)
	}
	r.events = nil

	// c is on both a and b. Moving b away keeps the client anchored to
	// a on screen 1, so no ClientMoved.
	if err := w.Move(byName["b"], s2); err != nil {
		t.Fatal(err)
	}
	for _, e := range r.events {
		if e == "client 7 1->2" {
			t.Fatalf("client moved despite anchor tag: %v", r.events)
		}
	}
	if got := c.Screen(); got == nil || got.ID() != 1 {
		t.Fatalf("client screen = %v, want screen 1", sid(got))
	}
}

func TestMoveLowestTagLeavesAnchoredClient(t *testing.T) {
	r := &recorder{}
	w, _, s2, byName := twoScreens(t, r)

	c := w.Manage(9)
	if err := w.Attach(c, byName["a"]); err != nil {
		t.Fatal(err)
	}
	if err := w.Attach(c, byName["b"]); err != nil {
		t.Fatal(err)
	}
	r.events = nil

	// Moving a, the client's lowest-index tag, must not drag the client
	// along: it still has b on screen 1.
	if err := w.Move(byName["a"], s2); err != nil {
		t.Fatal(err)
	}
	for _, e := range r.events {
		if e == "client 9 1->2" {
			t.Fatalf("client moved despite tag b on the old screen: %v", r.events)
		}
	}
	if got := c.Screen(); got == nil || got.ID() != 1 {
		t.Fatalf("client screen = %d, want 1", sid(got))
	}

	// Once b leaves too, the whole tag set is on screen 2 and the client
	// follows.
	r.events = nil
	if err := w.Move(byName["b"], s2); err != nil {
		t.Fatal(err)
	}
	if got := c.Screen(); got == nil || got.ID() != 2 {
		t.Fatalf("client screen = %d, want 2", sid(got))
	}
	found := false
	for _, e := range r.events {
		if e == "client 9 1->2" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no ClientMoved after the last tag left: %v", r.events)
	}
}

func TestViewOnly(t *testing.T) {
	w, s1, _, byName := twoScreens(t, nil)

	// ViewOnly of a remote tag moves it here and collapses the
	// selection to exactly that tag.
	if err := w.ViewOnly(byName["c"], s1); err != nil {
		t.Fatal(err)
	}
	if byName["c"].Screen() != s1 {
		t.Fatal("ViewOnly did not move the tag")
	}
	wantNames(t, s1.Selected(), "c")

	// Idempotent: a second ViewOnly changes nothing and does not grow
	// history.
	depth := len(s1.history)
	if err := w.ViewOnly(byName["c"], s1); err != nil {
		t.Fatal(err)
	}
	if len(s1.history) != depth {
		t.Fatalf("idempotent ViewOnly grew history %d -> %d", depth, len(s1.history))
	}
}

func TestViewToggle(t *testing.T) {
	w, s1, _, byName := twoScreens(t, nil)

	ok, err := w.ViewToggle(byName["b"], s1)
	if err != nil || !ok {
		t.Fatalf("toggle on: ok=%v err=%v", ok, err)
	}
	wantNames(t, s1.Selected(), "a", "b")

	ok, err = w.ViewToggle(byName["b"], s1)
	if err != nil || !ok {
		t.Fatalf("toggle off: ok=%v err=%v", ok, err)
	}
	wantNames(t, s1.Selected(), "a")

	// Toggling off the last selected tag is refused.
	ok, err = w.ViewToggle(byName["a"], s1)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("toggle emptied the selection")
	}
	wantNames(t, s1.Selected(), "a")
}

func TestViewCycle(t *testing.T) {
	w, s1, _, _ := twoScreens(t, nil)

	if err := w.View(s1, Next); err != nil {
		t.Fatal(err)
	}
	wantNames(t, s1.Selected(), "b")
	if err := w.View(s1, Next); err != nil {
		t.Fatal(err)
	}
	wantNames(t, s1.Selected(), "a") // Wrapped.
	if err := w.View(s1, Prev); err != nil {
		t.Fatal(err)
	}
	wantNames(t, s1.Selected(), "b") // Wrapped backwards.
}

func TestDelete(t *testing.T) {
	w, s1, _, byName := twoScreens(t, nil)

	c := w.Manage(9)
	if err := w.Attach(c, byName["b"]); err != nil {
		t.Fatal(err)
	}
	if err := w.Delete(byName["b"]); err != ErrTagNotEmpty {
		t.Fatalf("Delete with clients: err = %v, want ErrTagNotEmpty", err)
	}
	if err := w.Detach(c, byName["b"]); err != nil {
		t.Fatal(err)
	}

	// Deleting the selected tag falls back.
	if err := w.ViewOnly(byName["b"], s1); err != nil {
		t.Fatal(err)
	}
	if err := w.Delete(byName["b"]); err != nil {
		t.Fatal(err)
	}
	if byName["b"].Activated() {
		t.Fatal("deleted tag still activated")
	}
	wantNames(t, s1.Tags(), "a")
	wantNames(t, s1.Selected(), "a")

	if err := w.Delete(byName["a"]); err != ErrLastTag {
		t.Fatalf("Delete of last tag: err = %v, want ErrLastTag", err)
	}
	if err := w.Delete(byName["b"]); err != ErrDeactivated {
		t.Fatalf("double Delete: err = %v, want ErrDeactivated", err)
	}
}

func TestRemoveScreen(t *testing.T) {
	w, s1, s2, byName := twoScreens(t, nil)

	if err := w.RemoveScreen(s2); err != nil {
		t.Fatal(err)
	}
	// All of screen 2's tags arrive on screen 1, in index order,
	// interleaved with the residents by creation index.
	wantNames(t, s1.Tags(), "a", "b", "c", "d")
	// Screen 1 keeps its own selection; c arrives deselected even
	// though it was selected on screen 2.
	wantNames(t, s1.Selected(), "a")
	if byName["c"].Selected() {
		t.Fatal("arriving tag kept its selection over the survivor's")
	}
	if len(w.Screens()) != 1 {
		t.Fatalf("screens = %d, want 1", len(w.Screens()))
	}

	if err := w.RemoveScreen(s1); err != ErrLastScreen {
		t.Fatalf("removing last screen: err = %v, want ErrLastScreen", err)
	}
}

func TestRemoveScreenTargetHadNoSelection(t *testing.T) {
	w := New(nil)
	s1 := w.AddScreen()
	s2 := w.AddScreen()
	_, err := w.Add([]Spec{
		{Name: "x", Screen: 2},
		{Name: "y", Screen: 2, Selected: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Screen 1 has no tags at all. Removing screen 2 must leave the
	// survivor with the arriving selection intact.
	if err := w.RemoveScreen(s2); err != nil {
		t.Fatal(err)
	}
	wantNames(t, s1.Tags(), "x", "y")
	wantNames(t, s1.Selected(), "y")
}

func TestRemoveScreenKeepsAllSelectedArrivals(t *testing.T) {
	w := New(nil)
	s1 := w.AddScreen()
	s2 := w.AddScreen()
	if _, err := w.Add([]Spec{
		{Name: "x", Screen: 2, Selected: true},
		{Name: "y", Screen: 2, Selected: true},
	}); err != nil {
		t.Fatal(err)
	}
	// The empty survivor inherits the removed screen's whole selection,
	// not just its first selected tag.
	if err := w.RemoveScreen(s2); err != nil {
		t.Fatal(err)
	}
	wantNames(t, s1.Selected(), "x", "y")
}

func TestRemoveScreenClientsFollow(t *testing.T) {
	r := &recorder{}
	w, _, s2, byName := twoScreens(t, r)

	c := w.Manage(5)
	if err := w.Attach(c, byName["d"]); err != nil {
		t.Fatal(err)
	}
	r.events = nil

	if err := w.RemoveScreen(s2); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range r.events {
		if e == "client 5 2->1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no ClientMoved for redistributed client: %v", r.events)
	}
	if got := c.Screen(); got == nil || got.ID() != 1 {
		t.Fatalf("client screen = %d, want 1", sid(got))
	}
}

func TestRemoveScreenPicksLowestSurvivor(t *testing.T) {
	w := New(nil)
	w.AddScreen()
	w.AddScreen()
	s3 := w.AddScreen()
	_, err := w.Add([]Spec{{Name: "t", Screen: 3, Selected: true}})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.RemoveScreen(s3); err != nil {
		t.Fatal(err)
	}
	// The survivor with the lowest ID is screen 1, not screen 2.
	if got := w.Tags()[0].Screen(); got == nil || got.ID() != 1 {
		t.Fatalf("tag landed on screen %d, want 1", sid(got))
	}
}
