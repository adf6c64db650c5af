package hotkey

import "golang.design/x/hotkey"

var modifierNames = map[string]hotkey.Modifier{
	"ctrl": hotkey.ModCtrl, "control": hotkey.ModCtrl,
	"alt": hotkey.ModAlt, "option": hotkey.ModAlt,
	"shift": hotkey.ModShift,
	"win":   hotkey.ModWin, "cmd": hotkey.ModWin, "command": hotkey.ModWin, "super": hotkey.ModWin,
}

var supportedModifiers = []string{"ctrl", "alt", "shift", "win"}
