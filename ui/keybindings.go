package ui

import (
	"github.com/gdamore/tcell/v2"
)

// KeyAction represents an action that can be triggered by keybindings
type KeyAction struct {
	name    string
	handler func()
}

// KeyBindingManager maps keys to actions and dispatches events, including
// the two-stroke 'gg' sequence.
type KeyBindingManager struct {
	bindings map[tcell.Key]KeyAction // special key -> action mapping
	runeMap  map[rune]KeyAction      // rune -> action mapping
	pending  string                  // pending key sequence for multi-key bindings like 'gg'
}

// NewKeyBindingManager creates a new key binding manager
func NewKeyBindingManager() *KeyBindingManager {
	return &KeyBindingManager{
		bindings: make(map[tcell.Key]KeyAction),
		runeMap:  make(map[rune]KeyAction),
	}
}

// Register binds an action to any number of special keys and runes.
func (km *KeyBindingManager) Register(action KeyAction, keys []tcell.Key, runes []rune) {
	for _, key := range keys {
		km.bindings[key] = action
	}
	for _, r := range runes {
		km.runeMap[r] = action
	}
}

// HandleKey handles a keyboard event and returns true if it was consumed
func (km *KeyBindingManager) HandleKey(event *tcell.EventKey) bool {
	if event.Key() != tcell.KeyRune {
		km.pending = ""
		if action, ok := km.bindings[event.Key()]; ok {
			action.handler()
			return true
		}
		return false
	}

	r := event.Rune()

	if km.pending == "g" {
		km.pending = ""
		// 'gg' goes to the start, like vim.
		if r == 'g' {
			if action, ok := km.runeMap['G']; ok && action.name == "goStart" {
				action.handler()
				return true
			}
		}
		// Not a complete sequence, try current rune as standalone.
		if action, ok := km.runeMap[r]; ok {
			action.handler()
			return true
		}
		return false
	}

	if r == 'g' {
		km.pending = "g"
		return true
	}

	if action, ok := km.runeMap[r]; ok {
		km.pending = ""
		action.handler()
		return true
	}

	km.pending = ""
	return false
}

// ResetPending resets the pending key sequence
func (km *KeyBindingManager) ResetPending() {
	km.pending = ""
}
