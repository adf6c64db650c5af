package hotkey

import "golang.design/x/hotkey"

var modifierNames = map[string]hotkey.Modifier{
	"ctrl": hotkey.ModCtrl, "control": hotkey.ModCtrl,
	"alt": hotkey.ModOption, "option": hotkey.ModOption,
	"shift": hotkey.ModShift,
	"cmd":   hotkey.ModCmd, "command": hotkey.ModCmd, "win": hotkey.ModCmd, "super": hotkey.ModCmd,
}

var supportedModifiers = []string{"ctrl", "option", "shift", "cmd"}
