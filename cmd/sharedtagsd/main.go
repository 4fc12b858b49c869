package main

import (
	"flag"
	"os"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xinerama"
	xp "github.com/BurntSushi/xgb/xproto"
	"github.com/google/uuid"

	"sharedtags/internal/config"
	"sharedtags/internal/logger"
	"sharedtags/pkg/tags"
)

var (
	xConn    *xgb.Conn
	rootXWin xp.Window

	eventTime xp.Timestamp

	world   *tags.World
	screens []*screen
	clients = map[xp.Window]*client{}

	focusedClient *client
	terminalCmd   string

	wmLog *logger.Entry
)

// screen pairs an engine screen context with its X geometry.
type screen struct {
	ctx  *tags.Screen
	rect xp.Rectangle
}

// client pairs an engine client with its X window.
type client struct {
	handle *tags.Client
	xWin   xp.Window
	rect   xp.Rectangle
	seen   bool

	wmDeleteWindow bool
	wmTakeFocus    bool
}

// offscreenXY is the most negative X/Y co-ordinate. Hidden clients are
// parked there instead of being unmapped, so no synthetic UnmapNotify
// events need to be told apart from real ones.
const offscreenXY = -1 << 15

type checker interface {
	Check() error
}

var checkers []checker

func check(c checker) {
	checkers = append(checkers, c)
}

func contains(r xp.Rectangle, x, y int16) bool {
	return r.X <= x && x <= r.X+int16(r.Width) &&
		r.Y <= y && y <= r.Y+int16(r.Height)
}

func screenContaining(x, y int16) *screen {
	for _, s := range screens {
		if contains(s.rect, x, y) {
			return s
		}
	}
	return screens[0]
}

func pointerScreen() *screen {
	p, err := xp.QueryPointer(xConn, rootXWin).Reply()
	if err != nil {
		wmLog.WithError(err).Warn("query pointer failed")
		return screens[0]
	}
	return screenContaining(p.RootX, p.RootY)
}

func screenFor(ctx *tags.Screen) *screen {
	for _, s := range screens {
		if s.ctx == ctx {
			return s
		}
	}
	return nil
}

func clientFor(handle *tags.Client) *client {
	if handle == nil {
		return nil
	}
	return clients[xp.Window(handle.ID())]
}

// notifier reacts to engine callbacks: re-place the windows the mutation
// touched and advertise the new desktop state on the root window.
type notifier struct{}

func (notifier) TagMoved(t *tags.Tag, from, to *tags.Screen) {
	publishDesktops()
}

func (notifier) SelectionChanged(s *tags.Screen) {
	for _, c := range clients {
		if c.handle.Screen() == s {
			c.configure()
		}
	}
	publishCurrentDesktop()
}

func (notifier) ClientMoved(handle *tags.Client, from, to *tags.Screen) {
	if c := clientFor(handle); c != nil {
		c.configure()
		setClientDesktop(c)
	}
}

func sendClientMessage(xWin xp.Window, atom xp.Atom) {
	check(xp.SendEventChecked(xConn, false, xWin, xp.EventMaskNoEvent,
		string(xp.ClientMessageEvent{
			Format: 32,
			Window: xWin,
			Type:   atomWMProtocols,
			Data: xp.ClientMessageDataUnionData32New([]uint32{
				uint32(atom),
				uint32(eventTime),
				0,
				0,
				0,
			}),
		}.Bytes()),
	))
}

func handleConfigureRequest(e xp.ConfigureRequestEvent) {
	if c, ok := clients[e.Window]; ok {
		// Managed windows do not get a say: re-announce the geometry
		// the tag layout gave them.
		cne := xp.ConfigureNotifyEvent{
			Event:  c.xWin,
			Window: c.xWin,
			X:      c.rect.X,
			Y:      c.rect.Y,
			Width:  c.rect.Width,
			Height: c.rect.Height,
		}
		check(xp.SendEventChecked(xConn, false, c.xWin,
			xp.EventMaskStructureNotify, string(cne.Bytes())))
		return
	}
	mask, values := uint16(0), []uint32(nil)
	if e.ValueMask&xp.ConfigWindowX != 0 {
		mask |= xp.ConfigWindowX
		values = append(values, uint32(e.X))
	}
	if e.ValueMask&xp.ConfigWindowY != 0 {
		mask |= xp.ConfigWindowY
		values = append(values, uint32(e.Y))
	}
	if e.ValueMask&xp.ConfigWindowWidth != 0 {
		mask |= xp.ConfigWindowWidth
		values = append(values, uint32(e.Width))
	}
	if e.ValueMask&xp.ConfigWindowHeight != 0 {
		mask |= xp.ConfigWindowHeight
		values = append(values, uint32(e.Height))
	}
	if e.ValueMask&xp.ConfigWindowBorderWidth != 0 {
		mask |= xp.ConfigWindowBorderWidth
		values = append(values, uint32(e.BorderWidth))
	}
	if e.ValueMask&xp.ConfigWindowSibling != 0 {
		mask |= xp.ConfigWindowSibling
		values = append(values, uint32(e.Sibling))
	}
	if e.ValueMask&xp.ConfigWindowStackMode != 0 {
		mask |= xp.ConfigWindowStackMode
		values = append(values, uint32(e.StackMode))
	}
	check(xp.ConfigureWindowChecked(xConn, e.Window, mask, values))
}

func manage(xWin xp.Window, mapRequest bool) {
	c, ok := clients[xWin]
	if !ok {
		wmDeleteWindow, wmTakeFocus := false, false
		if prop, err := xp.GetProperty(xConn, false, xWin, atomWMProtocols,
			xp.GetPropertyTypeAny, 0, 64).Reply(); err != nil {
			wmLog.WithError(err).Warn("read WM_PROTOCOLS failed")
		} else {
			for v := prop.Value; len(v) >= 4; v = v[4:] {
				switch xp.Atom(u32(v)) {
				case atomWMDeleteWindow:
					wmDeleteWindow = true
				case atomWMTakeFocus:
					wmTakeFocus = true
				}
			}
		}

		s := pointerScreen()
		tag := currentTag(s)

		c = &client{
			xWin: xWin,
			rect: xp.Rectangle{
				X:      offscreenXY,
				Y:      offscreenXY,
				Width:  1,
				Height: 1,
			},
			wmDeleteWindow: wmDeleteWindow,
			wmTakeFocus:    wmTakeFocus,
		}
		c.handle = world.Manage(uint32(xWin))
		clients[xWin] = c
		if tag != nil {
			if err := world.Attach(c.handle, tag); err != nil {
				wmLog.WithError(err).Error("attach failed")
			}
		}

		check(xp.ChangeWindowAttributesChecked(xConn, xWin, xp.CwEventMask,
			[]uint32{xp.EventMaskEnterWindow | xp.EventMaskStructureNotify},
		))
		c.configure()
		setClientDesktop(c)
	}
	if mapRequest {
		check(xp.MapWindowChecked(xConn, xWin))
	}
	if c.handle.Visible() {
		focus(c)
	}
}

func unmanage(xWin xp.Window) {
	c, ok := clients[xWin]
	if !ok {
		return
	}
	world.Unmanage(c.handle)
	delete(clients, xWin)
	if focusedClient == c {
		focusedClient = nil
		focus(visibleClientOn(pointerScreen()))
	}
	if quitting && len(clients) == 0 {
		os.Exit(0)
	}
}

// currentTag returns the screen's first selected tag, which is where newly
// managed windows land.
func currentTag(s *screen) *tags.Tag {
	if sel := s.ctx.Selected(); len(sel) > 0 {
		return sel[0]
	}
	if ts := s.ctx.Tags(); len(ts) > 0 {
		return ts[0]
	}
	return nil
}

func visibleClientOn(s *screen) *client {
	for _, c := range clients {
		if c.handle.Visible() && c.handle.Screen() == s.ctx {
			return c
		}
	}
	return nil
}

// configure places the client: visible clients fill their screen (monocle),
// hidden ones are parked offscreen.
func (c *client) configure() {
	r := xp.Rectangle{X: offscreenXY, Y: offscreenXY, Width: c.rect.Width, Height: c.rect.Height}
	if c.handle.Visible() {
		if s := screenFor(c.handle.Screen()); s != nil {
			r = s.rect
		}
	}
	if c.seen && c.rect == r {
		return
	}
	c.rect = r
	mask, values := uint16(0), []uint32(nil)
	if r.X != offscreenXY {
		c.seen = true
		mask = xp.ConfigWindowX |
			xp.ConfigWindowY |
			xp.ConfigWindowWidth |
			xp.ConfigWindowHeight |
			xp.ConfigWindowBorderWidth
		values = []uint32{
			uint32(uint16(r.X)),
			uint32(uint16(r.Y)),
			uint32(r.Width),
			uint32(r.Height),
			0,
		}
	} else {
		mask = xp.ConfigWindowX | xp.ConfigWindowY
		values = []uint32{
			uint32(uint16(r.X)),
			uint32(uint16(r.Y)),
		}
	}
	check(xp.ConfigureWindowChecked(xConn, c.xWin, mask, values))
}

func focus(c *client) {
	focusedClient = c
	xWin := rootXWin
	if c != nil {
		xWin = c.xWin
		if c.wmTakeFocus {
			sendClientMessage(xWin, atomWMTakeFocus)
			return
		}
	}
	check(xp.SetInputFocusChecked(xConn, xp.InputFocusPointerRoot, xWin, eventTime))
}

func handleEnterNotify(e xp.EnterNotifyEvent) {
	if c, ok := clients[e.Event]; ok && c.handle.Visible() {
		focus(c)
	}
}

type xEventOrError struct {
	event xgb.Event
	error xgb.Error
}

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Named("main").WithError(err).Fatal("load config")
	}
	if err := logger.Configure(cfg.LogLevel); err != nil {
		logger.Named("main").WithError(err).Fatal("configure logging")
	}
	if cfg.LogFile != "" {
		closer, path, err := logger.SetupFile(cfg.LogFile)
		if err != nil {
			logger.Named("main").WithError(err).Fatal("open log file")
		}
		defer closer.Close()
		logger.Named("main").WithField("file", path).Info("logging to file")
	}
	wmLog = logger.Named("wm").WithField("run_id", uuid.NewString())
	terminalCmd = cfg.Terminal

	xConn, err = xgb.NewConn()
	if err != nil {
		wmLog.WithError(err).Fatal("connect to X")
	}
	if err = xinerama.Init(xConn); err != nil {
		wmLog.WithError(err).Fatal("init xinerama")
	}
	xSetup := xp.Setup(xConn)
	if len(xSetup.Roots) != 1 {
		wmLog.Fatalf("X setup has unsupported number of roots: %d", len(xSetup.Roots))
	}
	rootXWin = xSetup.Roots[0].Root

	becomeTheWM()
	initAtoms()
	initKeyboardMapping()

	world = tags.New(notifier{})
	world.SetLogger(logger.Named("tags"))
	initScreens(&xSetup.Roots[0])
	initRandr()

	specs := make([]tags.Spec, len(cfg.Tags))
	for i, t := range cfg.Tags {
		specs[i] = tags.Spec{Name: t.Name, Screen: t.Screen, Selected: t.Selected}
	}
	if _, err := world.Add(specs); err != nil {
		wmLog.WithError(err).Fatal("create tags")
	}
	publishDesktops()
	publishCurrentDesktop()
	wmLog.WithFields(logger.Fields{
		"screens": len(screens),
		"tags":    len(cfg.Tags),
	}).Info("sharedtagsd running")

	// Manage any windows that existed before we started.
	tree, err := xp.QueryTree(xConn, rootXWin).Reply()
	if err != nil {
		wmLog.WithError(err).Fatal("query tree")
	}
	for _, ch := range tree.Children {
		attrs, err := xp.GetWindowAttributes(xConn, ch).Reply()
		if err != nil {
			continue
		}
		if attrs.OverrideRedirect || attrs.MapState == xp.MapStateUnmapped {
			continue
		}
		manage(ch, false)
	}

	// Process X events.
	eeChan := make(chan xEventOrError)
	go func() {
		for {
			e, err := xConn.WaitForEvent()
			eeChan <- xEventOrError{e, err}
		}
	}()
	for {
		for i, c := range checkers {
			if err := c.Check(); err != nil {
				wmLog.WithError(err).Warn("X request failed")
			}
			checkers[i] = nil
		}
		checkers = checkers[:0]

		ee := <-eeChan
		if ee.error != nil {
			wmLog.WithField("error", ee.error).Debug("X error")
			continue
		}
		switch e := ee.event.(type) {
		case xp.ConfigureRequestEvent:
			handleConfigureRequest(e)
		case xp.EnterNotifyEvent:
			eventTime = e.Time
			handleEnterNotify(e)
		case xp.KeyPressEvent:
			eventTime = e.Time
			handleKeyPress(e)
		case xp.KeyReleaseEvent:
			eventTime = e.Time
		case xp.MapRequestEvent:
			manage(e.Window, true)
		case xp.UnmapNotifyEvent:
			unmanage(e.Window)
		case xp.DestroyNotifyEvent:
			unmanage(e.Window)
		case randr.ScreenChangeNotifyEvent:
			rescanScreens()
		case xp.ClientMessageEvent,
			xp.ConfigureNotifyEvent,
			xp.MapNotifyEvent,
			xp.MappingNotifyEvent:
			// No-op.
		default:
			wmLog.WithField("event", ee.event).Debug("unhandled event")
		}
	}
}
