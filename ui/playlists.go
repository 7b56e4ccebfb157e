package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	log "github.com/sirupsen/logrus"

	"github.com/purplemusic/purplemusic/domain"
)

// PlaylistsView lists the signed-in user's playlists. ENTER opens one as
// the playback queue; tracks arrive asynchronously after the queue is
// already active.
type PlaylistsView struct {
	app       *App
	container *tview.Flex
	table     *tview.Table
	playlists []domain.Playlist
	isActive  bool
}

// NewPlaylistsView creates a new playlists view
func NewPlaylistsView(app *App) *PlaylistsView {
	pv := &PlaylistsView{
		app:       app,
		playlists: make([]domain.Playlist, 0),
	}

	pv.table = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)

	pv.table.SetSelectedFunc(func(row, column int) {
		if row > 0 && row-1 < len(pv.playlists) {
			pv.app.openQueue(pv.playlists[row-1])
			pv.Close()
			pv.app.showQueue()
		}
	})

	pv.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			pv.Close()
			return nil
		}
		switch event.Rune() {
		case 'c', 'C':
			pv.createPlaylist()
			return nil
		case 'a', 'A':
			pv.addCurrentTrack()
			return nil
		case 'x', 'X':
			pv.deleteSelected()
			return nil
		}
		return event
	})

	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorMediumPurple).Attributes(tcell.AttrBold)
	pv.table.SetCell(0, 0, tview.NewTableCell("#").SetStyle(headerStyle))
	pv.table.SetCell(0, 1, tview.NewTableCell("Name").SetStyle(headerStyle))

	pv.container = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(pv.table, 0, 1, true)

	pv.container.SetBorder(true).
		SetTitle(" Playlists [ENTER: Open | C: New | A: Add track | X: Delete | ESC: Close] ").
		SetBorderColor(tcell.ColorMediumPurple)

	return pv
}

// Show displays the playlists view
func (pv *PlaylistsView) Show() {
	pv.isActive = true
	pv.app.tviewApp.SetFocus(pv.table)
	go pv.reload()
}

// Close hides the playlists view
func (pv *PlaylistsView) Close() {
	pv.isActive = false
	pv.app.returnToBrowse()
}

// IsActive returns whether the playlists view is active
func (pv *PlaylistsView) IsActive() bool {
	return pv.isActive
}

// GetContainer returns the playlists view container
func (pv *PlaylistsView) GetContainer() *tview.Flex {
	return pv.container
}

// reload fetches the user's playlists and redraws the table.
func (pv *PlaylistsView) reload() {
	if pv.app.user.UID == "" {
		pv.app.tviewApp.QueueUpdateDraw(func() {
			pv.render()
		})
		return
	}

	playlists, err := pv.app.playlists.ForUser(pv.app.user.UID)
	if err != nil {
		log.WithError(err).Warn("loading playlists failed")
	}
	pv.app.tviewApp.QueueUpdateDraw(func() {
		pv.playlists = playlists
		if pv.isActive {
			pv.render()
		}
	})
}

// createPlaylist makes an empty playlist with a generated name.
func (pv *PlaylistsView) createPlaylist() {
	if pv.app.user.UID == "" {
		pv.app.flashStatus("[yellow]Sign in to create playlists (press 'a')")
		return
	}
	name := fmt.Sprintf("Playlist %d", len(pv.playlists)+1)
	go func() {
		if _, err := pv.app.playlists.Create(pv.app.user.UID, name); err != nil {
			log.WithError(err).Warn("creating playlist failed")
			return
		}
		pv.reload()
	}()
}

// addCurrentTrack appends the playing track to the selected playlist.
func (pv *PlaylistsView) addCurrentTrack() {
	track, ok := pv.app.session.Current()
	if !ok {
		return
	}
	row, _ := pv.table.GetSelection()
	if row <= 0 || row-1 >= len(pv.playlists) {
		return
	}
	playlist := pv.playlists[row-1]
	go func() {
		if err := pv.app.playlists.AddTrack(playlist.ID, track); err != nil {
			log.WithError(err).Warn("adding track to playlist failed")
			return
		}
		pv.app.tviewApp.QueueUpdateDraw(func() {
			pv.app.flashStatus(fmt.Sprintf("[lightgreen]Added %s to %s", track.Title, playlist.Name))
		})
	}()
}

// deleteSelected removes the selected playlist.
func (pv *PlaylistsView) deleteSelected() {
	row, _ := pv.table.GetSelection()
	if row <= 0 || row-1 >= len(pv.playlists) {
		return
	}
	playlist := pv.playlists[row-1]
	go func() {
		if err := pv.app.playlists.Delete(playlist.ID); err != nil {
			log.WithError(err).Warn("deleting playlist failed")
			return
		}
		pv.reload()
	}()
}

// render redraws the playlist table
func (pv *PlaylistsView) render() {
	for i := pv.table.GetRowCount() - 1; i > 0; i-- {
		pv.table.RemoveRow(i)
	}

	if pv.app.user.UID == "" {
		pv.table.SetCell(1, 0, tview.NewTableCell("Sign in to see playlists").
			SetAlign(tview.AlignCenter).
			SetExpansion(2).
			SetTextColor(tcell.ColorGray))
		return
	}
	if len(pv.playlists) == 0 {
		pv.table.SetCell(1, 0, tview.NewTableCell("No playlists yet, press C to create one").
			SetAlign(tview.AlignCenter).
			SetExpansion(2).
			SetTextColor(tcell.ColorGray))
		return
	}

	rowStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for i, playlist := range pv.playlists {
		row := i + 1
		pv.table.SetCell(row, 0,
			tview.NewTableCell(fmt.Sprintf("%d", i+1)).
				SetStyle(rowStyle.Foreground(tcell.ColorMediumPurple)).
				SetAlign(tview.AlignRight))
		pv.table.SetCell(row, 1,
			tview.NewTableCell(playlist.Name).
				SetStyle(rowStyle).
				SetExpansion(2))
	}

	pv.table.SetSelectedStyle(tcell.StyleDefault.
		Background(tcell.ColorDarkSlateBlue).
		Foreground(tcell.ColorWhite))
}
