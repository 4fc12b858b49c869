package tags

// Add creates the tags described by specs. Specs are validated up front;
// either all tags are created or none. After creation, any screen that has
// tags but no selected tag selects its lowest-index tag.
func (w *World) Add(specs []Spec) ([]*Tag, error) {
	if len(w.screens) == 0 {
		return nil, ErrNoScreens
	}
	for _, sp := range specs {
		if sp.Name == "" {
			return nil, ErrEmptyName
		}
	}
	created := make([]*Tag, 0, len(specs))
	for _, sp := range specs {
		n := sp.Screen
		if n < 1 {
			n = 1
		}
		if n > len(w.screens) {
			n = len(w.screens)
		}
		w.nextTagIndex++
		t := &Tag{
			world:     w,
			screen:    w.screens[n-1],
			name:      sp.Name,
			index:     w.nextTagIndex,
			selected:  sp.Selected,
			activated: true,
		}
		t.link[Prev] = w.anchor.link[Prev]
		t.link[Next] = &w.anchor
		t.link[Prev].link[Next] = t
		t.link[Next].link[Prev] = t
		created = append(created, t)
		w.log.WithFields(map[string]interface{}{
			"tag":    t.name,
			"index":  t.index,
			"screen": t.screen.id,
		}).Debug("tag created")
	}
	for _, s := range w.screens {
		w.ensureSelected(s)
	}
	return created, nil
}

// Move reassigns t to screen s. This is the screen-reassignment protocol:
// the ring order is untouched, so both screens' tag lists stay sorted by
// creation index; a client follows t only when it has no other tag left on
// the old screen; and if t was the old screen's only selected tag, the old
// screen falls back to its previous selection (or its lowest-index tag).
// Moving a tag onto its own screen is a no-op.
func (w *World) Move(t *Tag, s *Screen) error {
	if t == nil || s == nil {
		return ErrNilArg
	}
	if t.world != w || s.world != w {
		return ErrForeign
	}
	if !t.activated {
		return ErrDeactivated
	}
	if t.screen == s {
		return nil
	}
	from := t.screen

	var affected []*Client
	var wasOn []*Screen
	for _, c := range w.clients {
		if c.onTag(t) {
			affected = append(affected, c)
			wasOn = append(wasOn, c.Screen())
		}
	}

	wasSelected := t.selected
	t.screen = s

	if wasSelected && from != nil && len(from.Selected()) == 0 {
		if !w.restoreHistory(from) {
			w.ensureSelected(from)
		}
	}

	w.log.WithFields(map[string]interface{}{
		"tag":  t.name,
		"from": screenID(from),
		"to":   s.id,
	}).Debug("tag moved")
	if w.notify != nil {
		w.notify.TagMoved(t, from, s)
	}
	w.notifyClientMoves(affected, wasOn)
	return nil
}

// ViewOnly moves t to s and makes it the only selected tag there. The
// previous selection is pushed onto s's history so it can be restored.
func (w *World) ViewOnly(t *Tag, s *Screen) error {
	if err := w.Move(t, s); err != nil {
		return err
	}
	cur := s.Selected()
	if len(cur) == 1 && cur[0] == t {
		return nil
	}
	w.pushHistory(s)
	for _, o := range s.Tags() {
		o.selected = o == t
	}
	if w.notify != nil {
		w.notify.SelectionChanged(s)
	}
	return nil
}

// ViewToggle moves t to s and toggles its selected flag. A toggle that
// would leave s with no selected tag is refused and reports false.
func (w *World) ViewToggle(t *Tag, s *Screen) (bool, error) {
	if err := w.Move(t, s); err != nil {
		return false, err
	}
	if t.selected && len(s.Selected()) == 1 {
		return false, nil
	}
	w.pushHistory(s)
	t.selected = !t.selected
	if w.notify != nil {
		w.notify.SelectionChanged(s)
	}
	return true, nil
}

// View selects the next or previous tag on s, relative to the first
// selected tag, wrapping around the screen's tag list.
func (w *World) View(s *Screen, tr Traversal) error {
	if s == nil {
		return ErrNilArg
	}
	if s.world != w {
		return ErrForeign
	}
	ts := s.Tags()
	if len(ts) == 0 {
		return nil
	}
	cur := 0
	for i, t := range ts {
		if t.selected {
			cur = i
			break
		}
	}
	if tr == Next {
		cur = (cur + 1) % len(ts)
	} else {
		cur = (cur + len(ts) - 1) % len(ts)
	}
	return w.ViewOnly(ts[cur], s)
}

// Delete deactivates t. Delete fails if the tag still has clients or is
// its screen's only tag. If t was selected, the screen falls back to its
// previous selection, else to its lowest-index tag.
func (w *World) Delete(t *Tag) error {
	if t == nil {
		return ErrNilArg
	}
	if t.world != w {
		return ErrForeign
	}
	if !t.activated {
		return ErrDeactivated
	}
	for _, c := range w.clients {
		if c.onTag(t) {
			return ErrTagNotEmpty
		}
	}
	s := t.screen
	if len(s.Tags()) == 1 {
		return ErrLastTag
	}

	t.link[Next].link[Prev] = t.link[Prev]
	t.link[Prev].link[Next] = t.link[Next]
	t.link[Next], t.link[Prev] = nil, nil
	wasSelected := t.selected
	t.activated = false
	t.selected = false
	t.screen = nil

	if wasSelected && len(s.Selected()) == 0 {
		if !w.restoreHistory(s) {
			w.ensureSelected(s)
		}
	}
	w.log.WithField("tag", t.name).Debug("tag deleted")
	return nil
}

// RemoveScreen removes s and redistributes its tags, in index order, onto
// the lowest-ID surviving screen. The survivor keeps its own selection and
// arriving tags are deselected; if the survivor had nothing selected, the
// arrivals keep their selected flags instead, and when none of them was
// selected either the lowest-index tag becomes selected. Clients follow
// their tags. Removing the last screen fails.
func (w *World) RemoveScreen(s *Screen) error {
	if s == nil {
		return ErrNilArg
	}
	if s.world != w {
		return ErrForeign
	}
	if len(w.screens) == 1 {
		return ErrLastScreen
	}

	var target *Screen
	for _, o := range w.screens {
		if o == s {
			continue
		}
		if target == nil || o.id < target.id {
			target = o
		}
	}

	moved := s.Tags()
	var affected []*Client
	var wasOn []*Screen
	for _, c := range w.clients {
		for _, t := range moved {
			if c.onTag(t) {
				affected = append(affected, c)
				wasOn = append(wasOn, c.Screen())
				break
			}
		}
	}

	targetHadSelection := len(target.Selected()) > 0
	for _, t := range moved {
		t.screen = target
		if targetHadSelection {
			t.selected = false
		}
	}
	selectionChanged := false
	if !targetHadSelection && len(target.Selected()) == 0 {
		// None of the arrivals was selected either.
		if ts := target.Tags(); len(ts) > 0 {
			ts[0].selected = true
		}
		selectionChanged = len(target.Tags()) > 0
	} else if !targetHadSelection {
		selectionChanged = true
	}

	for i, o := range w.screens {
		if o == s {
			w.screens = append(w.screens[:i], w.screens[i+1:]...)
			break
		}
	}
	s.history = nil
	s.world = nil

	w.log.WithFields(map[string]interface{}{
		"screen": s.id,
		"target": target.id,
		"tags":   len(moved),
	}).Debug("screen removed, tags redistributed")
	if w.notify != nil {
		for _, t := range moved {
			w.notify.TagMoved(t, s, target)
		}
		if selectionChanged {
			w.notify.SelectionChanged(target)
		}
	}
	w.notifyClientMoves(affected, wasOn)
	return nil
}

// RestoreHistory re-selects the most recent selection snapshot on s that is
// still valid. It reports whether anything was restored. The selection that
// was current before the restore is pushed back, so two restores in a row
// toggle between the two most recent selections.
func (w *World) RestoreHistory(s *Screen) bool {
	if s == nil || s.world != w {
		return false
	}
	cur := s.Selected()
	if !w.restoreHistory(s) {
		return false
	}
	if len(cur) > 0 {
		s.history = append(s.history, cur)
	}
	return true
}

// ensureSelected selects the lowest-index tag on s if s has tags but no
// selection.
func (w *World) ensureSelected(s *Screen) {
	if s == nil {
		return
	}
	ts := s.Tags()
	if len(ts) == 0 || len(s.Selected()) > 0 {
		return
	}
	ts[0].selected = true
	if w.notify != nil {
		w.notify.SelectionChanged(s)
	}
}

const maxHistory = 32

// pushHistory snapshots s's current selection. Empty or duplicate-of-top
// snapshots are skipped.
func (w *World) pushHistory(s *Screen) {
	cur := s.Selected()
	if len(cur) == 0 {
		return
	}
	if n := len(s.history); n > 0 && sameTags(s.history[n-1], cur) {
		return
	}
	s.history = append(s.history, cur)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}

// restoreHistory pops snapshots until one contains at least one tag that is
// still activated and still on s, then applies it. Stale entries never
// resurrect a deleted tag or drag one back from another screen.
func (w *World) restoreHistory(s *Screen) bool {
	for len(s.history) > 0 {
		snap := s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		var valid []*Tag
		for _, t := range snap {
			if t.activated && t.screen == s {
				valid = append(valid, t)
			}
		}
		if len(valid) == 0 || sameTags(valid, s.Selected()) {
			continue
		}
		for _, t := range s.Tags() {
			t.selected = false
		}
		for _, t := range valid {
			t.selected = true
		}
		if w.notify != nil {
			w.notify.SelectionChanged(s)
		}
		return true
	}
	return false
}

// notifyClientMoves resettles each affected client, then reports the ones
// whose screen changed against where they were before the mutation.
func (w *World) notifyClientMoves(affected []*Client, wasOn []*Screen) {
	for _, c := range affected {
		c.resettle()
	}
	if w.notify == nil {
		return
	}
	for i, c := range affected {
		if c.screen != wasOn[i] {
			w.notify.ClientMoved(c, wasOn[i], c.screen)
		}
	}
}

func sameTags(a, b []*Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func screenID(s *Screen) int {
	if s == nil {
		return 0
	}
	return s.id
}
