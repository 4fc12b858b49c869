package main

import (
	xp "github.com/BurntSushi/xgb/xproto"
)

func handleKeyPress(e xp.KeyPressEvent) {
	shift := 0
	if e.State&xp.ModMaskShift != 0 {
		shift = 1
	}
	keysym := int32(keysyms[e.Detail][shift])
	if shift != 0 {
		if keysym == 0 {
			keysym = int32(keysyms[e.Detail][0])
		}
		keysym = ^keysym
	}
	if a := actions[keysym]; a.do != nil {
		a.do(screenContaining(e.RootX, e.RootY), a.arg)
	}
}
