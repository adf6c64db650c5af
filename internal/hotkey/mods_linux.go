package hotkey

import "golang.design/x/hotkey"

// X11: Mod1 通常为 Alt，Mod4 为 Super
var modifierNames = map[string]hotkey.Modifier{
	"ctrl": hotkey.ModCtrl, "control": hotkey.ModCtrl,
	"alt": hotkey.Mod1, "option": hotkey.Mod1,
	"shift": hotkey.ModShift,
	"super": hotkey.Mod4, "win": hotkey.Mod4, "cmd": hotkey.Mod4, "command": hotkey.Mod4,
}

var supportedModifiers = []string{"ctrl", "alt", "shift", "super"}
