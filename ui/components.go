package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/purplemusic/purplemusic/session"
)

// createHomepage sets up the UI layout
func (a *App) createHomepage() {
	a.progressBar = tview.NewTextView().
		SetDynamicColors(true)
	a.progressBar.SetBorder(false)

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false).
		SetWrap(true)
	a.statusBar.SetBorder(false)

	a.trackTable = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	a.trackTable.SetBorder(false)

	a.helpView = NewHelpView(a)
	a.queueView = NewQueueView(a)
	a.searchView = NewSearchView(a)
	a.nowPlaying = NewNowPlayingView(a)
	a.premium = NewPremiumView(a)
	a.playlistsV = NewPlaylistsView(a)

	a.setupTableHeaders()
	a.setupKeyBindings()
	a.setupInputHandlers()

	leftPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.statusBar, 0, 1, false)

	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.trackTable, 0, 1, true)

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(leftPanel, 0, 1, false).
		AddItem(rightPanel, 0, 2, true)

	a.rootFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainLayout, 0, 1, true).
		AddItem(a.progressBar, 3, 0, false)

	a.tviewApp.SetRoot(a.rootFlex, true)
	a.statusBar.SetText(CreateWelcomeMessage(0))
}

// setupTableHeaders sets up the table header row
func (a *App) setupTableHeaders() {
	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorGray).Attributes(tcell.AttrBold)

	for col := 0; col < 5; col++ {
		a.trackTable.SetCell(0, col, tview.NewTableCell("").SetStyle(headerStyle))
	}
}

// setupKeyBindings registers the global key map.
func (a *App) setupKeyBindings() {
	a.keys = NewKeyBindingManager()

	a.keys.Register(KeyAction{name: "toggle", handler: a.togglePlayPause},
		nil, []rune{' '})
	a.keys.Register(KeyAction{name: "next", handler: func() { a.advance(session.Next) }},
		nil, []rune{'n', 'N'})
	a.keys.Register(KeyAction{name: "previous", handler: func() { a.advance(session.Previous) }},
		nil, []rune{'p', 'P'})
	a.keys.Register(KeyAction{name: "seekForward", handler: func() { a.seekBy(10) }},
		[]tcell.Key{tcell.KeyRight}, nil)
	a.keys.Register(KeyAction{name: "seekBack", handler: func() { a.seekBy(-10) }},
		[]tcell.Key{tcell.KeyLeft}, nil)
	a.keys.Register(KeyAction{name: "volumeUp", handler: func() { a.volumeBy(0.05) }},
		nil, []rune{'+', '='})
	a.keys.Register(KeyAction{name: "volumeDown", handler: func() { a.volumeBy(-0.05) }},
		nil, []rune{'-', '_'})
	a.keys.Register(KeyAction{name: "shuffle", handler: a.session.ToggleShuffle},
		nil, []rune{'s', 'S'})
	a.keys.Register(KeyAction{name: "repeat", handler: a.session.CycleRepeat},
		nil, []rune{'r', 'R'})
	a.keys.Register(KeyAction{name: "like", handler: a.toggleLike},
		nil, []rune{'f', 'F'})
	a.keys.Register(KeyAction{name: "search", handler: a.showSearch},
		nil, []rune{'/'})
	a.keys.Register(KeyAction{name: "help", handler: a.showHelp},
		nil, []rune{'?'})
	a.keys.Register(KeyAction{name: "queue", handler: a.showQueue},
		nil, []rune{'q', 'Q'})
	a.keys.Register(KeyAction{name: "playlists", handler: a.showPlaylists},
		nil, []rune{'l', 'L'})
	a.keys.Register(KeyAction{name: "nowPlaying", handler: a.showNowPlaying},
		nil, []rune{'i', 'I'})
	a.keys.Register(KeyAction{name: "signIn", handler: a.signIn},
		nil, []rune{'a', 'A'})
	a.keys.Register(KeyAction{name: "premium", handler: a.showPremium},
		nil, []rune{'u', 'U'})
	a.keys.Register(KeyAction{name: "nextPage", handler: a.nextPage},
		[]tcell.Key{tcell.KeyPgDn}, []rune{']', '>', 'J'})
	a.keys.Register(KeyAction{name: "prevPage", handler: a.previousPage},
		[]tcell.Key{tcell.KeyPgUp}, []rune{'[', '<', 'K'})
	a.keys.Register(KeyAction{name: "goStart", handler: func() {
		a.currentPage = 1
		a.renderTrackTable()
		a.updateStatusWithPageInfo()
	}}, nil, []rune{'G'})
}

// setupInputHandlers sets up keyboard input handlers
func (a *App) setupInputHandlers() {
	a.trackTable.SetSelectedFunc(func(row, column int) {
		if row > 0 {
			startIndex := (a.currentPage - 1) * a.pageSize
			globalIndex := startIndex + (row - 1)
			if globalIndex < len(a.tracks) {
				a.playTrackAt(globalIndex)
			}
		}
	})

	a.tviewApp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Modal views consume their own keys first.
		if a.helpView != nil && a.helpView.IsActive() {
			if event.Key() == tcell.KeyEscape || event.Rune() == '?' {
				a.helpView.Close()
				return nil
			}
			return event
		}
		if a.queueView != nil && a.queueView.IsActive() {
			if event.Key() == tcell.KeyEscape {
				a.queueView.Close()
				return nil
			}
			return event
		}
		if a.searchView != nil && a.searchView.IsActive() {
			return event
		}
		if a.playlistsV != nil && a.playlistsV.IsActive() {
			return event
		}
		if a.nowPlaying != nil && a.nowPlaying.IsActive() {
			return a.nowPlaying.HandleKey(event)
		}
		if a.premium != nil && a.premium.IsActive() {
			return a.premium.HandleKey(event)
		}

		switch event.Key() {
		case tcell.KeyEsc:
			a.handleExit()
			return nil
		case tcell.KeyCtrlC:
			a.handleExit()
			return nil
		}

		if a.keys.HandleKey(event) {
			return nil
		}
		return event
	})
}

// handleExit handles the exit signal
func (a *App) handleExit() {
	a.adapter.Unbind()
	a.tviewApp.Stop()

	go func() {
		time.Sleep(1 * time.Second)
	}()
}

// renderTrackTable renders the browse table with current page data
func (a *App) renderTrackTable() {
	for i := a.trackTable.GetRowCount() - 1; i > 0; i-- {
		a.trackTable.RemoveRow(i)
	}
	a.setupTableHeaders()
	pageData := a.getCurrentPageData()
	startIndex := (a.currentPage - 1) * a.pageSize

	for i, track := range pageData {
		row := i + 1
		globalIndex := startIndex + i + 1
		rowStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDefault)

		a.trackTable.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%d:", globalIndex)).
			SetStyle(rowStyle.Foreground(tcell.ColorMediumPurple)).
			SetAlign(tview.AlignRight))

		a.trackTable.SetCell(row, 1, tview.NewTableCell(track.Title).
			SetStyle(rowStyle).
			SetExpansion(1))

		a.trackTable.SetCell(row, 2, tview.NewTableCell(FormatDuration(track.Duration)).
			SetStyle(rowStyle.Foreground(tcell.ColorGray)).
			SetAlign(tview.AlignRight))

		a.trackTable.SetCell(row, 3, tview.NewTableCell(track.Artist).
			SetStyle(rowStyle.Foreground(tcell.ColorGray)).
			SetMaxWidth(a.cfg.UI.MaxColumnWidth))

		a.trackTable.SetCell(row, 4, tview.NewTableCell(track.Album).
			SetStyle(rowStyle.Foreground(tcell.ColorGray)).
			SetMaxWidth(a.cfg.UI.MaxColumnWidth))
	}

	a.trackTable.SetSelectedStyle(tcell.StyleDefault.
		Background(tcell.ColorDarkSlateBlue).
		Foreground(tcell.ColorWhite))

	a.trackTable.ScrollToBeginning()
}

// updateTransportDisplays redraws the mini player and status panel from
// the session's transport state. Runs on the UI thread.
func (a *App) updateTransportDisplays() {
	track, ok := a.session.Current()
	if !ok {
		a.progressBar.SetText("")
		return
	}

	state := a.session.Transport()
	currentTime := FormatDuration(state.Position)
	totalTime := FormatDuration(state.Duration)
	volumeText := fmt.Sprintf("%.0f%%", state.Volume*100)

	a.progressBar.SetText(CreateProgressText(currentTime, totalTime, volumeText, state.Playing))

	progress := 0.0
	if state.Duration > 0 {
		progress = state.Position / state.Duration
	}
	bar := CreateProgressBar(progress, a.cfg.UI.ProgressBarWidth)

	status := fmt.Sprintf("[mediumpurple]%s", track.Title)
	if !state.Playing {
		status = fmt.Sprintf("[yellow]%s [darkgray](PAUSED)", track.Title)
	}
	a.statusBar.SetText(FormatTrackInfo(track, status, bar, a.session.Mode()))

	if a.nowPlaying != nil && a.nowPlaying.IsActive() {
		a.nowPlaying.Refresh()
	}
}

// updateStatus updates the status bar from any goroutine.
func (a *App) updateStatus(info string) {
	a.tviewApp.QueueUpdateDraw(func() {
		if a.statusBar != nil {
			a.statusBar.SetText(info)
		}
	})
}

// flashStatus shows a transient message on the UI thread; the next
// transport refresh replaces it.
func (a *App) flashStatus(info string) {
	if a.statusBar != nil {
		a.statusBar.SetText(info)
	}
}

// updateStatusWithPageInfo updates status bar with page information
func (a *App) updateStatusWithPageInfo() {
	pageInfo := fmt.Sprintf("[gray]Page %d/%d | %d tracks total",
		a.currentPage, a.totalPages, len(a.tracks))

	if _, ok := a.session.Current(); ok {
		return
	}
	a.statusBar.SetText(CreateWelcomeMessage(len(a.tracks)) + "\n\n" + pageInfo)
}

// showHelp displays the help modal view
func (a *App) showHelp() {
	if a.helpView == nil {
		return
	}
	a.tviewApp.SetRoot(centeredModal(a.helpView.GetContainer(), 60, 20), true)
	a.helpView.Show()
}

// showQueue displays the queue modal view
func (a *App) showQueue() {
	if a.queueView == nil {
		return
	}
	a.queueView.Refresh()
	a.tviewApp.SetRoot(centeredModal(a.queueView.GetContainer(), 80, 20), true)
	a.queueView.Show()
}

// showSearch displays the search view
func (a *App) showSearch() {
	if a.searchView == nil {
		return
	}
	a.tviewApp.SetRoot(a.searchView.GetContainer(), true)
	a.searchView.Show()
}

// showPlaylists displays the playlists modal view
func (a *App) showPlaylists() {
	if a.playlistsV == nil {
		return
	}
	a.tviewApp.SetRoot(centeredModal(a.playlistsV.GetContainer(), 60, 20), true)
	a.playlistsV.Show()
}

// showNowPlaying displays the full now-playing view
func (a *App) showNowPlaying() {
	if a.nowPlaying == nil {
		return
	}
	a.tviewApp.SetRoot(a.nowPlaying.GetContainer(), true)
	a.nowPlaying.Show()
}

// showPremium displays the premium purchase view
func (a *App) showPremium() {
	if a.premium == nil {
		return
	}
	a.tviewApp.SetRoot(centeredModal(a.premium.GetContainer(), 60, 16), true)
	a.premium.Show()
}

// returnToBrowse restores the main screen and focus.
func (a *App) returnToBrowse() {
	a.tviewApp.SetRoot(a.rootFlex, true)
	a.tviewApp.SetFocus(a.trackTable)
}

// centeredModal wraps a primitive in a fixed-size centered frame.
func centeredModal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexColumn).
			AddItem(nil, 0, 1, false).
			AddItem(p, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)
}
