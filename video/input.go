package video

import (
	"github.com/hajimehoshi/ebiten/v2"

	emucore "github.com/Zash60/MedNES/api"
)

// Bindings maps each console button to a keyboard key and a standard
// gamepad button.
type Bindings struct {
	Keys    map[emucore.Button]ebiten.Key
	Gamepad map[emucore.Button]ebiten.StandardGamepadButton
}

// keyNameMap maps key name strings used in config files to ebiten keys.
var keyNameMap = map[string]ebiten.Key{
	"A": ebiten.KeyA, "B": ebiten.KeyB, "C": ebiten.KeyC, "D": ebiten.KeyD,
	"E": ebiten.KeyE, "F": ebiten.KeyF, "G": ebiten.KeyG, "H": ebiten.KeyH,
	"I": ebiten.KeyI, "J": ebiten.KeyJ, "K": ebiten.KeyK, "L": ebiten.KeyL,
	"M": ebiten.KeyM, "N": ebiten.KeyN, "O": ebiten.KeyO, "P": ebiten.KeyP,
	"Q": ebiten.KeyQ, "R": ebiten.KeyR, "S": ebiten.KeyS, "T": ebiten.KeyT,
	"U": ebiten.KeyU, "V": ebiten.KeyV, "W": ebiten.KeyW, "X": ebiten.KeyX,
	"Y": ebiten.KeyY, "Z": ebiten.KeyZ,

	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Tab":        ebiten.KeyTab,
	"Shift":      ebiten.KeyShift,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"Comma":      ebiten.KeyComma,
	"Period":     ebiten.KeyPeriod,
	"Slash":      ebiten.KeySlash,
	"Semicolon":  ebiten.KeySemicolon,
}

// padNameMap maps gamepad button names to ebiten standard buttons.
var padNameMap = map[string]ebiten.StandardGamepadButton{
	"A":         ebiten.StandardGamepadButtonRightBottom,
	"B":         ebiten.StandardGamepadButtonRightRight,
	"X":         ebiten.StandardGamepadButtonRightLeft,
	"Y":         ebiten.StandardGamepadButtonRightTop,
	"Start":     ebiten.StandardGamepadButtonCenterRight,
	"Select":    ebiten.StandardGamepadButtonCenterLeft,
	"DpadUp":    ebiten.StandardGamepadButtonLeftTop,
	"DpadDown":  ebiten.StandardGamepadButtonLeftBottom,
	"DpadLeft":  ebiten.StandardGamepadButtonLeftLeft,
	"DpadRight": ebiten.StandardGamepadButtonLeftRight,
}

// reservedKeys drive window functions and cannot be bound to buttons.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyEscape: true, // quit
	ebiten.KeyF11:    true, // fullscreen
	ebiten.KeyF12:    true, // screenshot
	ebiten.KeyF3:     true, // overlay
}

// defaultBindings follow the classic desktop layout: A/B on the letter
// keys, Space for Select, Enter for Start and the arrow keys.
var defaultBindings = []struct {
	button emucore.Button
	key    string
	pad    string
}{
	{emucore.ButtonA, "A", "A"},
	{emucore.ButtonB, "B", "B"},
	{emucore.ButtonSelect, "Space", "Select"},
	{emucore.ButtonStart, "Enter", "Start"},
	{emucore.ButtonUp, "ArrowUp", "DpadUp"},
	{emucore.ButtonDown, "ArrowDown", "DpadDown"},
	{emucore.ButtonLeft, "ArrowLeft", "DpadLeft"},
	{emucore.ButtonRight, "ArrowRight", "DpadRight"},
}

// ParseKey converts a key name to an ebiten.Key.
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNameMap[name]
	return k, ok
}

// ParsePad converts a gamepad button name to an ebiten standard button.
func ParsePad(name string) (ebiten.StandardGamepadButton, bool) {
	b, ok := padNameMap[name]
	return b, ok
}

// DefaultBindings returns the built-in mapping.
func DefaultBindings() Bindings {
	return BindingsFromConfig(nil, nil)
}

// BindingsFromConfig builds a mapping from overrides keyed by button name
// ("A", "Start", "Up", ...), falling back to the defaults for buttons
// that are absent or invalid. Reserved keys are never bound.
func BindingsFromConfig(kbOverrides, padOverrides map[string]string) Bindings {
	b := Bindings{
		Keys:    make(map[emucore.Button]ebiten.Key),
		Gamepad: make(map[emucore.Button]ebiten.StandardGamepadButton),
	}
	for _, d := range defaultBindings {
		name := d.button.String()

		keyName := d.key
		if override, ok := kbOverrides[name]; ok {
			if k, ok := ParseKey(override); ok && !reservedKeys[k] {
				keyName = override
			}
		}
		if k, ok := ParseKey(keyName); ok {
			b.Keys[d.button] = k
		}

		padName := d.pad
		if override, ok := padOverrides[name]; ok {
			if _, ok := ParsePad(override); ok {
				padName = override
			}
		}
		if p, ok := ParsePad(padName); ok {
			b.Gamepad[d.button] = p
		}
	}
	return b
}

// buttonState is a bitmask of held buttons, bit N for emucore.Button(N).
type buttonState uint8

// edges calls fn for every button whose state differs between prev and
// cur, in button order.
func edges(prev, cur buttonState, fn func(b emucore.Button, pressed bool)) {
	changed := prev ^ cur
	for _, b := range emucore.Buttons() {
		bit := buttonState(1) << uint(b)
		if changed&bit != 0 {
			fn(b, cur&bit != 0)
		}
	}
}

// pollButtons reads keyboard and first-gamepad state. The left analog
// stick follows whichever buttons are bound to the D-pad.
func pollButtons(b Bindings) buttonState {
	var state buttonState
	for btn, key := range b.Keys {
		if ebiten.IsKeyPressed(key) {
			state |= 1 << uint(btn)
		}
	}

	ids := ebiten.AppendGamepadIDs(nil)
	if len(ids) == 0 {
		return state
	}
	id := ids[0]
	axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	for btn, pad := range b.Gamepad {
		pressed := ebiten.IsStandardGamepadButtonPressed(id, pad)
		switch pad {
		case ebiten.StandardGamepadButtonLeftLeft:
			pressed = pressed || axisX < -0.25
		case ebiten.StandardGamepadButtonLeftRight:
			pressed = pressed || axisX > 0.25
		case ebiten.StandardGamepadButtonLeftTop:
			pressed = pressed || axisY < -0.25
		case ebiten.StandardGamepadButtonLeftBottom:
			pressed = pressed || axisY > 0.25
		}
		if pressed {
			state |= 1 << uint(btn)
		}
	}
	return state
}
