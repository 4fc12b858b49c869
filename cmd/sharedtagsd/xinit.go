package main

import (
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xinerama"
	xp "github.com/BurntSushi/xgb/xproto"

	"sharedtags/pkg/tags"
)

var (
	atomWMProtocols    xp.Atom
	atomWMDeleteWindow xp.Atom
	atomWMTakeFocus    xp.Atom

	atomNetSupported        xp.Atom
	atomNetNumberOfDesktops xp.Atom
	atomNetDesktopNames     xp.Atom
	atomNetCurrentDesktop   xp.Atom
	atomNetWMDesktop        xp.Atom
	atomUTF8String          xp.Atom

	desktopWidth  uint16
	desktopHeight uint16

	keysyms [256][2]xp.Keysym
)

func becomeTheWM() {
	if err := xp.ChangeWindowAttributesChecked(xConn, rootXWin, xp.CwEventMask, []uint32{
		xp.EventMaskSubstructureRedirect,
	}).Check(); err != nil {
		if _, ok := err.(xp.AccessError); ok {
			wmLog.Fatal("could not become the window manager. Is another window manager running?")
		}
		wmLog.Fatal(err)
	}
}

func initAtoms() {
	atomWMProtocols = internAtom("WM_PROTOCOLS")
	atomWMDeleteWindow = internAtom("WM_DELETE_WINDOW")
	atomWMTakeFocus = internAtom("WM_TAKE_FOCUS")

	atomNetSupported = internAtom("_NET_SUPPORTED")
	atomNetNumberOfDesktops = internAtom("_NET_NUMBER_OF_DESKTOPS")
	atomNetDesktopNames = internAtom("_NET_DESKTOP_NAMES")
	atomNetCurrentDesktop = internAtom("_NET_CURRENT_DESKTOP")
	atomNetWMDesktop = internAtom("_NET_WM_DESKTOP")
	atomUTF8String = internAtom("UTF8_STRING")

	supported := []xp.Atom{
		atomNetSupported,
		atomNetNumberOfDesktops,
		atomNetDesktopNames,
		atomNetCurrentDesktop,
		atomNetWMDesktop,
	}
	data := make([]byte, 0, 4*len(supported))
	for _, a := range supported {
		data = putU32(data, uint32(a))
	}
	check(xp.ChangePropertyChecked(xConn, xp.PropModeReplace, rootXWin,
		atomNetSupported, xp.AtomAtom, 32, uint32(len(supported)), data))
}

func internAtom(name string) xp.Atom {
	r, err := xp.InternAtom(xConn, false, uint16(len(name)), name).Reply()
	if err != nil {
		wmLog.Fatal(err)
	}
	return r.Atom
}

func initKeyboardMapping() {
	const (
		keyLo = 8
		keyHi = 255
	)
	km, err := xp.GetKeyboardMapping(xConn, keyLo, keyHi-keyLo+1).Reply()
	if err != nil {
		wmLog.Fatal(err)
	}
	n := int(km.KeysymsPerKeycode)
	if n < 2 {
		wmLog.Fatalf("too few keysyms per keycode: %d", n)
	}
	for i := keyLo; i <= keyHi; i++ {
		keysyms[i][0] = km.Keysyms[(i-keyLo)*n+0]
		keysyms[i][1] = km.Keysyms[(i-keyLo)*n+1]
	}

	keycode := xp.Keycode(0)
	for i := keyLo; i <= keyHi; i++ {
		if keysyms[i][0] == wmKeysym || keysyms[i][1] == wmKeysym {
			keycode = xp.Keycode(i)
		}
	}
	if keycode == 0 {
		wmLog.Fatalf("could not find a keycode for the window manager key %#x", wmKeysym)
	}
	if err := xp.GrabKeyChecked(xConn, false, rootXWin, xp.ModMaskAny, keycode,
		xp.GrabModeAsync, xp.GrabModeAsync).Check(); err != nil {
		wmLog.Fatal(err)
	}
}

func initScreens(xScreen *xp.ScreenInfo) {
	desktopWidth = xScreen.WidthInPixels
	desktopHeight = xScreen.HeightInPixels
	for _, rect := range queryScreenRects() {
		screens = append(screens, &screen{ctx: world.AddScreen(), rect: rect})
	}
}

func initRandr() {
	if err := randr.Init(xConn); err != nil {
		wmLog.WithError(err).Warn("RandR unavailable; screen changes will go unnoticed")
		return
	}
	if err := randr.SelectInputChecked(xConn, rootXWin,
		randr.NotifyMaskScreenChange).Check(); err != nil {
		wmLog.WithError(err).Warn("RandR select input failed")
	}
}

// queryScreenRects returns the xinerama screen geometries, or the whole
// root window as a single screen when xinerama reports nothing.
func queryScreenRects() []xp.Rectangle {
	xine, err := xinerama.QueryScreens(xConn).Reply()
	if err != nil {
		wmLog.WithError(err).Warn("xinerama query failed")
	}
	if xine != nil && len(xine.ScreenInfo) > 0 {
		rects := make([]xp.Rectangle, len(xine.ScreenInfo))
		for i, si := range xine.ScreenInfo {
			rects[i] = xp.Rectangle{
				X:      si.XOrg,
				Y:      si.YOrg,
				Width:  si.Width,
				Height: si.Height,
			}
		}
		return rects
	}
	return []xp.Rectangle{{X: 0, Y: 0, Width: desktopWidth, Height: desktopHeight}}
}

// rescanScreens re-reads the screen layout after a RandR change. Screens
// that disappeared hand their tags to a survivor through the engine's
// redistribution path; new screens get an empty context and pick up tags
// the next time one is viewed there.
func rescanScreens() {
	rects := queryScreenRects()

	for i := 0; i < len(screens) && i < len(rects); i++ {
		screens[i].rect = rects[i]
	}
	for len(screens) > len(rects) {
		last := screens[len(screens)-1]
		screens = screens[:len(screens)-1]
		if err := world.RemoveScreen(last.ctx); err != nil {
			wmLog.WithError(err).Error("remove screen")
		}
	}
	for len(screens) < len(rects) {
		screens = append(screens, &screen{
			ctx:  world.AddScreen(),
			rect: rects[len(screens)],
		})
	}

	for _, c := range clients {
		c.configure()
	}
	publishDesktops()
	publishCurrentDesktop()
	wmLog.WithField("screens", len(screens)).Info("screen layout changed")
}

// desktopIndex returns a tag's 0-based position within the global tag
// ring, which is what EWMH desktop numbers are.
func desktopIndex(t *tags.Tag) (uint32, bool) {
	for i, o := range world.Tags() {
		if o == t {
			return uint32(i), true
		}
	}
	return 0, false
}

func publishDesktops() {
	all := world.Tags()
	check(xp.ChangePropertyChecked(xConn, xp.PropModeReplace, rootXWin,
		atomNetNumberOfDesktops, xp.AtomCardinal, 32, 1,
		putU32(nil, uint32(len(all)))))

	var names []byte
	for _, t := range all {
		names = append(names, t.Name()...)
		names = append(names, 0)
	}
	check(xp.ChangePropertyChecked(xConn, xp.PropModeReplace, rootXWin,
		atomNetDesktopNames, atomUTF8String, 8, uint32(len(names)), names))
}

func publishCurrentDesktop() {
	if len(screens) == 0 {
		return
	}
	cur := currentTag(screens[0])
	if cur == nil {
		return
	}
	if i, ok := desktopIndex(cur); ok {
		check(xp.ChangePropertyChecked(xConn, xp.PropModeReplace, rootXWin,
			atomNetCurrentDesktop, xp.AtomCardinal, 32, 1, putU32(nil, i)))
	}
}

func setClientDesktop(c *client) {
	i := uint32(0xffffffff) // EWMH "all desktops" for untagged windows.
	if ts := c.handle.Tags(); len(ts) > 0 {
		if n, ok := desktopIndex(ts[0]); ok {
			i = n
		}
	}
	check(xp.ChangePropertyChecked(xConn, xp.PropModeReplace, c.xWin,
		atomNetWMDesktop, xp.AtomCardinal, 32, 1, putU32(nil, i)))
}

func putU32(b []byte, u uint32) []byte {
	return append(b, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}

func u32(b []byte) uint32 {
	return uint32(b[0])<<0 | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
