package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// HelpView represents the keyboard shortcuts help interface
type HelpView struct {
	app       *App
	container *tview.Flex
	textView  *tview.TextView
	isActive  bool
}

// NewHelpView creates a new help view
func NewHelpView(app *App) *HelpView {
	hv := &HelpView{
		app: app,
	}

	hv.textView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)

	helpText := `[mediumpurple::b]Keyboard Shortcuts[-:-:-]

[lightgreen]Playback Controls:[-]
  [white]Space[-]       Play/Pause current track
  [white]Enter[-]       Play selected track
  [white]n / N[-]       Next track
  [white]p / P[-]       Previous track
  [white]→[-]           Seek forward 10s
  [white]←[-]           Seek back 10s
  [white]+ / -[-]       Volume up/down
  [white]s / S[-]       Toggle shuffle
  [white]r / R[-]       Cycle repeat (off/all/one)

[lightgreen]Navigation:[-]
  [white]↑ / ↓[-]       Navigate track list
  [white]< / >[-]       Previous/Next page
  [white][ / ][-]       Previous/Next page (alternative)
  [white]PgUp/PgDn[-]   Previous/Next page (alternative)
  [white]gg / G[-]      Jump to first page
  [white]/[-]           Open search
  [white]?[-]           Show this help panel
  [white]q / Q[-]       Show playback queue
  [white]l / L[-]       Show playlists
  [white]i / I[-]       Show now playing (cover art and lyrics)

[lightgreen]Account:[-]
  [white]a / A[-]       Sign in
  [white]f / F[-]       Like/unlike current track
  [white]u / U[-]       Premium upgrade

[lightgreen]General:[-]
  [white]ESC[-]         Close modal / Exit program
  [white]Ctrl+C[-]      Exit program

[mediumpurple]Press ESC or ? to close this help panel[-]
`

	hv.textView.SetText(helpText)

	hv.container = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(hv.textView, 0, 1, true)

	hv.container.SetBorder(true).
		SetTitle(" Help (ESC to close) ").
		SetBorderColor(tcell.ColorMediumPurple)

	return hv
}

// Show displays the help view
func (hv *HelpView) Show() {
	hv.isActive = true
	hv.app.tviewApp.SetFocus(hv.textView)
}

// Close hides the help view
func (hv *HelpView) Close() {
	hv.isActive = false
	hv.app.returnToBrowse()
}

// IsActive returns whether the help view is active
func (hv *HelpView) IsActive() bool {
	return hv.isActive
}

// GetContainer returns the help view container
func (hv *HelpView) GetContainer() *tview.Flex {
	return hv.container
}
