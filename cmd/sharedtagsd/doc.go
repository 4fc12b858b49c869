/*
Sharedtagsd is a minimal X11 window manager whose tags (virtual desktops)
are shared across screens instead of belonging to one screen each.

With per-screen desktops, "show my mail desktop on the left monitor" is not
expressible: the desktop lives where it was created. Here every tag belongs
to a common pool. Viewing tag 3 on whichever screen the pointer is over
fetches the tag, and its windows, to that screen. The screen the tag left
behind falls back to whatever it was showing before, so no screen ever goes
blank.

INSTALLATION

Build and install with:

	go install sharedtags/cmd/sharedtagsd@latest

and start it from ~/.xsession:

	/path/to/your/sharedtagsd

CONFIGURATION

Tags are declared in ~/.config/sharedtagsd/config.toml (or a file named
with the -config flag):

	log_level = "info"
	terminal  = "x-terminal-emulator"

	[[tag]]
	name = "web"
	screen = 1
	selected = true

	[[tag]]
	name = "mail"
	screen = 2

Without a config file you get nine tags named "1" through "9" on the first
screen. A tag's screen number beyond the number of attached monitors clamps
to the last one, so a two-monitor config still works on a laptop.

USAGE

Windows are shown one per screen (monocle): the visible window of a tag
fills the tag's screen. All shortcuts hold down the Super ("Windows") key:

	Super-1 .. Super-9       view tag N here, fetching it if needed
	Super-F1 .. Super-F9     toggle tag N into this screen's selection
	Super-Shift-F1 .. F9     send the focused window to tag N
	Super-E / Super-R        view the previous/next tag on this screen
	Super-T                  swap back to the previously viewed tags
	Super-` / Super-Shift-~  jump the pointer to the next/previous screen
	Super-Enter              launch a terminal
	Super-Shift-Enter        launch dmenu_run
	Super-Backspace          close the focused window
	Super-Shift-Escape       (three times, quickly) quit

When a monitor is unplugged, its tags are handed to the lowest-numbered
surviving screen; their relative order and the survivor's selection are
preserved. Plugging a monitor in adds an empty screen; view any tag there
to populate it.

Sharedtagsd publishes _NET_NUMBER_OF_DESKTOPS, _NET_DESKTOP_NAMES,
_NET_CURRENT_DESKTOP and per-window _NET_WM_DESKTOP, so EWMH pagers and
bars can display the shared tag state.
*/
package main
