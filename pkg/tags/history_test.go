package tags

import "testing"

func TestRestoreHistoryToggles(t *testing.T) {
	w, s1, _, byName := twoScreens(t, nil)

	if err := w.ViewOnly(byName["b"], s1); err != nil {
		t.Fatal(err)
	}
	// {a} is in history, {b} is current. Restores now toggle a <-> b.
	if !w.RestoreHistory(s1) {
		t.Fatal("first restore failed")
	}
	wantNames(t, s1.Selected(), "a")
	if !w.RestoreHistory(s1) {
		t.Fatal("second restore failed")
	}
	wantNames(t, s1.Selected(), "b")
}

func TestRestoreHistorySkipsStaleEntries(t *testing.T) {
	w, s1, s2, byName := twoScreens(t, nil)

	if err := w.ViewOnly(byName["b"], s1); err != nil {
		t.Fatal(err)
	}
	if err := w.ViewOnly(byName["a"], s1); err != nil {
		t.Fatal(err)
	}
	// History top on screen 1 is {b}. Move b elsewhere: the snapshot is
	// stale and must be skipped, not drag b back.
	if err := w.Move(byName["b"], s2); err != nil {
		t.Fatal(err)
	}
	w.RestoreHistory(s1)
	if byName["b"].Screen() != s2 {
		t.Fatal("restore dragged a moved tag back")
	}
	for _, sel := range s1.Selected() {
		if sel == byName["b"] {
			t.Fatal("restore selected a tag that is on another screen")
		}
	}
}

func TestRestoreHistoryNeverResurrectsDeleted(t *testing.T) {
	w, s1, _, byName := twoScreens(t, nil)

	if err := w.ViewOnly(byName["b"], s1); err != nil {
		t.Fatal(err)
	}
	if err := w.ViewOnly(byName["a"], s1); err != nil {
		t.Fatal(err)
	}
	if err := w.Delete(byName["b"]); err != nil {
		t.Fatal(err)
	}
	if w.RestoreHistory(s1) {
		t.Fatal("restored a snapshot containing only a deleted tag")
	}
	wantNames(t, s1.Selected(), "a")
}

func TestHistoryCapped(t *testing.T) {
	w := New(nil)
	s := w.AddScreen()
	created, err := w.Add([]Spec{
		{Name: "p", Screen: 1, Selected: true},
		{Name: "q", Screen: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4*maxHistory; i++ {
		if err := w.ViewOnly(created[i%2], s); err != nil {
			t.Fatal(err)
		}
	}
	if len(s.history) > maxHistory {
		t.Fatalf("history depth %d exceeds cap %d", len(s.history), maxHistory)
	}
}
