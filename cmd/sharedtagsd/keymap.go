package main

import (
	"os"
	"os/exec"
	"time"

	xp "github.com/BurntSushi/xgb/xproto"

	"sharedtags/pkg/tags"
)

// These constants come from /usr/include/X11/keysymdef.h.
const (
	xkBackspace = 0xff08
	xkReturn    = 0xff0d
	xkEscape    = 0xff1b
	xkSuperL    = 0xffeb
	xkF1        = 0xffbe
	xkF2        = 0xffbf
	xkF3        = 0xffc0
	xkF4        = 0xffc1
	xkF5        = 0xffc2
	xkF6        = 0xffc3
	xkF7        = 0xffc4
	xkF8        = 0xffc5
	xkF9        = 0xffc6
)

// wmKeysym is the key that triggers sharedtagsd actions while held.
const wmKeysym = xkSuperL

// actions lists the action to be performed for each key press while the
// window manager key is held. The do function returns whether the key was
// consumed.
//
// The map keys are X11 keysyms as int32s. The unary +/^ means whether the
// shift modifier needs to be absent/present.
var actions = map[int32]struct {
	do  func(*screen, interface{}) bool
	arg interface{}
}{
	+xkReturn: {doTerminal, nil},
	^xkReturn: {doExec, []string{"dmenu_run"}},

	+xkBackspace: {doClientDelete, nil},
	^xkEscape:    {doQuit, nil},

	+'`': {doScreen, tags.Next},
	^'~': {doScreen, tags.Prev},

	+'e': {doCycle, tags.Prev},
	+'r': {doCycle, tags.Next},
	+'t': {doHistory, nil},

	// View tag N on the screen under the pointer. If the tag is showing
	// elsewhere it is fetched here, clients and all.
	+'1': {doView, 0},
	+'2': {doView, 1},
	+'3': {doView, 2},
	+'4': {doView, 3},
	+'5': {doView, 4},
	+'6': {doView, 5},
	+'7': {doView, 6},
	+'8': {doView, 7},
	+'9': {doView, 8},

	// Toggle tag N into or out of this screen's selection.
	+xkF1: {doToggle, 0},
	+xkF2: {doToggle, 1},
	+xkF3: {doToggle, 2},
	+xkF4: {doToggle, 3},
	+xkF5: {doToggle, 4},
	+xkF6: {doToggle, 5},
	+xkF7: {doToggle, 6},
	+xkF8: {doToggle, 7},
	+xkF9: {doToggle, 8},

	// Send the focused client to tag N.
	^xkF1: {doClientMove, 0},
	^xkF2: {doClientMove, 1},
	^xkF3: {doClientMove, 2},
	^xkF4: {doClientMove, 3},
	^xkF5: {doClientMove, 4},
	^xkF6: {doClientMove, 5},
	^xkF7: {doClientMove, 6},
	^xkF8: {doClientMove, 7},
	^xkF9: {doClientMove, 8},
}

func tagN(n int) *tags.Tag {
	all := world.Tags()
	if n < 0 || n >= len(all) {
		return nil
	}
	return all[n]
}

func doView(s *screen, n1 interface{}) bool {
	n, ok := n1.(int)
	if !ok {
		return false
	}
	t := tagN(n)
	if t == nil {
		return false
	}
	if err := world.ViewOnly(t, s.ctx); err != nil {
		wmLog.WithError(err).Error("view tag")
		return false
	}
	focus(visibleClientOn(s))
	return true
}

func doToggle(s *screen, n1 interface{}) bool {
	n, ok := n1.(int)
	if !ok {
		return false
	}
	t := tagN(n)
	if t == nil {
		return false
	}
	if _, err := world.ViewToggle(t, s.ctx); err != nil {
		wmLog.WithError(err).Error("toggle tag")
		return false
	}
	focus(visibleClientOn(s))
	return true
}

func doCycle(s *screen, t1 interface{}) bool {
	t, ok := t1.(tags.Traversal)
	if !ok {
		return false
	}
	if err := world.View(s.ctx, t); err != nil {
		wmLog.WithError(err).Error("cycle tags")
		return false
	}
	focus(visibleClientOn(s))
	return true
}

func doHistory(s *screen, _ interface{}) bool {
	if !world.RestoreHistory(s.ctx) {
		return false
	}
	focus(visibleClientOn(s))
	return true
}

func doClientMove(s *screen, n1 interface{}) bool {
	n, ok := n1.(int)
	if !ok {
		return false
	}
	c := focusedClient
	t := tagN(n)
	if c == nil || t == nil {
		return false
	}
	// Attach before detaching so the client is never untagged.
	if err := world.Attach(c.handle, t); err != nil {
		wmLog.WithError(err).Error("retag client")
		return false
	}
	for _, o := range c.handle.Tags() {
		if o != t {
			if err := world.Detach(c.handle, o); err != nil {
				wmLog.WithError(err).Error("retag client")
			}
		}
	}
	c.configure()
	setClientDesktop(c)
	focus(visibleClientOn(s))
	return true
}

func doClientDelete(_ *screen, _ interface{}) bool {
	c := focusedClient
	if c == nil {
		return false
	}
	if c.wmDeleteWindow {
		sendClientMessage(c.xWin, atomWMDeleteWindow)
	} else {
		check(xp.KillClientChecked(xConn, uint32(c.xWin)))
	}
	return true
}

func doScreen(s *screen, t1 interface{}) bool {
	t, ok := t1.(tags.Traversal)
	if !ok {
		return false
	}
	i := -1
	for j, o := range screens {
		if o == s {
			i = j
			break
		}
	}
	if i < 0 {
		return false
	}
	if t == tags.Next {
		i = (i + 1) % len(screens)
	} else {
		i = (i + len(screens) - 1) % len(screens)
	}
	r := screens[i].rect
	check(xp.WarpPointerChecked(xConn, xp.WindowNone, rootXWin, 0, 0, 0, 0,
		r.X+int16(r.Width/2),
		r.Y+int16(r.Height/2),
	))
	focus(visibleClientOn(screens[i]))
	return true
}

func doTerminal(s *screen, _ interface{}) bool {
	return doExec(s, []string{terminalCmd})
}

func doExec(_ *screen, cmd1 interface{}) bool {
	cmd, ok := cmd1.([]string)
	if !ok || len(cmd) == 0 {
		return false
	}
	go func() {
		c := exec.Command(cmd[0], cmd[1:]...)
		if err := c.Start(); err != nil {
			wmLog.WithField("cmd", cmd).WithError(err).Error("could not start command")
			return
		}
		// Ignore any error from the program itself.
		c.Wait()
	}()
	return true
}

var (
	quitTimes [2]time.Time
	quitIndex int
	quitting  bool
)

// doQuit requires three presses in quick succession, then asks every
// client to close and exits once they have (or after a grace period).
func doQuit(_ *screen, _ interface{}) bool {
	if quitting {
		return false
	}
	now := time.Now()
	since := now.Sub(quitTimes[quitIndex])
	quitTimes[quitIndex] = now
	quitIndex = (quitIndex + 1) % len(quitTimes)
	if since > 5*time.Second {
		return true
	}
	quitting = true

	waiting := false
	for _, c := range clients {
		if c.wmDeleteWindow {
			waiting = true
			sendClientMessage(c.xWin, atomWMDeleteWindow)
		}
	}
	if waiting {
		go func() {
			time.Sleep(60 * time.Second)
			os.Exit(0)
		}()
	} else {
		os.Exit(0)
	}
	return true
}
