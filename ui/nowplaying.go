package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/purplemusic/purplemusic/domain"
	"github.com/purplemusic/purplemusic/lyrics"
)

// NowPlayingView is the full-screen view: cover art, transport bar and
// synced lyrics. The active line follows the playback position; scrolling
// is rate-limited by the lyrics sync so the terminal is not redrawn on
// every position tick.
type NowPlayingView struct {
	app        *App
	container  *tview.Flex
	coverView  *tview.TextView
	infoView   *tview.TextView
	lyricsView *tview.TextView
	isActive   bool

	transcript lyrics.Transcript
	activeLine int
	coverKey   string
}

// NewNowPlayingView creates the now-playing view
func NewNowPlayingView(app *App) *NowPlayingView {
	nv := &NowPlayingView{
		app:        app,
		activeLine: -1,
	}

	nv.coverView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	nv.infoView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	nv.lyricsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetTextAlign(tview.AlignCenter)
	nv.lyricsView.SetBorder(true).
		SetTitle(" Lyrics ").
		SetBorderColor(tcell.ColorDarkSlateBlue)

	left := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nv.coverView, 0, 2, false).
		AddItem(nv.infoView, 0, 1, false)

	nv.container = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(left, 0, 1, false).
		AddItem(nv.lyricsView, 0, 1, true)

	nv.container.SetBorder(true).
		SetTitle(" Now Playing [ESC/i: Back] ").
		SetBorderColor(tcell.ColorMediumPurple)

	return nv
}

// Show displays the now-playing view
func (nv *NowPlayingView) Show() {
	nv.isActive = true
	nv.Refresh()
	nv.renderLyrics()
	nv.app.tviewApp.SetFocus(nv.lyricsView)

	if track, ok := nv.app.session.Current(); ok && nv.coverKey != track.Key() {
		go nv.LoadCover(track)
	}
}

// Close hides the now-playing view
func (nv *NowPlayingView) Close() {
	nv.isActive = false
	nv.app.returnToBrowse()
}

// IsActive returns whether the now-playing view is active
func (nv *NowPlayingView) IsActive() bool {
	return nv.isActive
}

// GetContainer returns the now-playing view container
func (nv *NowPlayingView) GetContainer() *tview.Flex {
	return nv.container
}

// HandleKey consumes view-local keys and forwards transport keys.
func (nv *NowPlayingView) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyEscape || event.Rune() == 'i' || event.Rune() == 'I' {
		nv.Close()
		return nil
	}
	// Transport controls stay live in the full-screen view.
	if nv.app.keys.HandleKey(event) {
		return nil
	}
	return event
}

// SetTranscript installs the fetched transcript for the bound track.
func (nv *NowPlayingView) SetTranscript(t lyrics.Transcript) {
	nv.transcript = t
	nv.activeLine = -1
	nv.renderLyrics()
}

// HighlightLine moves the active-line highlight; called only when the
// line actually changed.
func (nv *NowPlayingView) HighlightLine(idx int) {
	nv.activeLine = idx
	if !nv.isActive {
		return
	}
	nv.renderLyrics()
	if idx >= 0 && nv.app.lyricsSync.ShouldScroll() {
		nv.lyricsView.ScrollTo(idx, 0)
	}
}

// LoadCover fetches and renders the cover art off the UI thread.
func (nv *NowPlayingView) LoadCover(track domain.Track) {
	ascii := nv.app.coverConverter.ConvertFromURL(track.CoverArt)
	nv.app.tviewApp.QueueUpdateDraw(func() {
		current, ok := nv.app.session.Current()
		if !ok || current.Key() != track.Key() {
			return
		}
		nv.coverKey = track.Key()
		nv.coverView.SetText(ascii)
	})
}

// Refresh redraws the track info block.
func (nv *NowPlayingView) Refresh() {
	track, ok := nv.app.session.Current()
	if !ok {
		nv.infoView.SetText("[darkgray]Nothing playing")
		return
	}
	state := nv.app.session.Transport()
	nv.infoView.SetText(fmt.Sprintf(`
[white::b]%s[-:-:-]
[gray]%s — %s

[darkgray]%s / %s
%s`,
		track.Title, track.Artist, track.Album,
		FormatDuration(state.Position), FormatDuration(state.Duration),
		FormatPlayMode(nv.app.session.Mode())))
}

// renderLyrics paints the transcript with the active line highlighted.
func (nv *NowPlayingView) renderLyrics() {
	if !nv.transcript.Synced || len(nv.transcript.Lines) == 0 {
		nv.lyricsView.SetText("\n[darkgray]No lyrics available")
		return
	}

	text := ""
	for i, line := range nv.transcript.Lines {
		if i == nv.activeLine {
			text += fmt.Sprintf("[mediumpurple::b]%s[-:-:-]\n", line.Text)
		} else {
			text += fmt.Sprintf("[gray]%s\n", line.Text)
		}
	}
	nv.lyricsView.SetText(text)
}
