package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/purplemusic/purplemusic/domain"
	"github.com/purplemusic/purplemusic/search"
)

// SearchView is search-as-you-type over the remote sources with the local
// library as fallback. Typing is debounced; result delivery is guarded so
// a slow early query can never overwrite a later one.
type SearchView struct {
	app         *App
	container   *tview.Flex
	inputField  *tview.InputField
	resultTable *tview.Table
	results     []domain.Track
	isActive    bool

	debounce   *search.Debouncer
	dispatcher *search.Dispatcher
}

// NewSearchView creates a new search view
func NewSearchView(app *App) *SearchView {
	sv := &SearchView{
		app:      app,
		results:  make([]domain.Track, 0),
		debounce: search.NewDebouncer(search.TypingWindow),
	}
	sv.dispatcher = search.NewDispatcher(app.searcher, sv.deliver)

	sv.inputField = tview.NewInputField().
		SetLabel("Search: ").
		SetFieldWidth(0).
		SetFieldBackgroundColor(tcell.ColorDefault)

	sv.inputField.SetChangedFunc(func(text string) {
		if text == "" {
			sv.debounce.Cancel()
			sv.dispatcher.Cancel()
			return
		}
		sv.debounce.Trigger(func() {
			sv.dispatcher.Submit(text)
		})
	})

	sv.inputField.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			// Skip the debounce window on an explicit submit.
			sv.debounce.Cancel()
			if query := sv.inputField.GetText(); query != "" {
				sv.dispatcher.Submit(query)
			}
		} else if key == tcell.KeyEscape {
			sv.Close()
		}
	})

	sv.resultTable = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)

	sv.resultTable.SetSelectedFunc(func(row, column int) {
		if row > 0 && row-1 < len(sv.results) {
			track := sv.results[row-1]
			sv.app.playFromSearch(track)
			sv.Close()
		}
	})

	sv.resultTable.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			sv.Close()
			return nil
		}
		row, _ := sv.resultTable.GetSelection()
		if row > 0 && row-1 < len(sv.results) {
			track := sv.results[row-1]
			if event.Key() == tcell.KeyEnter {
				sv.app.playFromSearch(track)
				sv.Close()
				return nil
			}
			if event.Rune() == 'f' || event.Rune() == 'F' {
				sv.app.likeFromSearch(track)
				return nil
			}
		}
		return event
	})

	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorMediumPurple).Attributes(tcell.AttrBold)
	sv.resultTable.SetCell(0, 0, tview.NewTableCell("#").SetStyle(headerStyle))
	sv.resultTable.SetCell(0, 1, tview.NewTableCell("Title").SetStyle(headerStyle))
	sv.resultTable.SetCell(0, 2, tview.NewTableCell("Artist").SetStyle(headerStyle))
	sv.resultTable.SetCell(0, 3, tview.NewTableCell("Source").SetStyle(headerStyle))
	sv.resultTable.SetCell(0, 4, tview.NewTableCell("Duration").SetStyle(headerStyle))

	sv.container = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(sv.inputField, 1, 0, true).
		AddItem(sv.resultTable, 0, 1, false)

	sv.container.SetBorder(true).
		SetTitle(" Search [ENTER: Play | F: Like | ESC: Close] ").
		SetBorderColor(tcell.ColorMediumPurple)

	sv.container.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			sv.Close()
			return nil
		}
		return event
	})

	return sv
}

// Show displays the search view
func (sv *SearchView) Show() {
	sv.isActive = true
	sv.app.tviewApp.SetFocus(sv.inputField)
}

// Close hides the search view and cancels anything still in flight.
func (sv *SearchView) Close() {
	sv.isActive = false
	sv.debounce.Cancel()
	sv.dispatcher.Cancel()
	sv.inputField.SetText("")
	sv.results = make([]domain.Track, 0)
	sv.clearResults()
	sv.app.returnToBrowse()
}

// IsActive returns whether the search view is active
func (sv *SearchView) IsActive() bool {
	return sv.isActive
}

// GetContainer returns the search view container
func (sv *SearchView) GetContainer() *tview.Flex {
	return sv.container
}

// deliver receives results from the dispatcher (already stale-guarded) on
// the fetch goroutine.
func (sv *SearchView) deliver(_ string, tracks []domain.Track) {
	sv.app.tviewApp.QueueUpdateDraw(func() {
		if !sv.isActive {
			return
		}
		sv.results = tracks
		sv.displayResults()
		if len(tracks) > 0 {
			sv.app.tviewApp.SetFocus(sv.resultTable)
		}
	})
}

// displayResults renders the search results in the table
func (sv *SearchView) displayResults() {
	sv.clearResults()

	if len(sv.results) == 0 {
		sv.resultTable.SetCell(1, 0, tview.NewTableCell("No results found").
			SetAlign(tview.AlignCenter).
			SetExpansion(5))
		return
	}

	rowStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	for i, track := range sv.results {
		row := i + 1

		sv.resultTable.SetCell(row, 0,
			tview.NewTableCell(fmt.Sprintf("%d", i+1)).
				SetStyle(rowStyle.Foreground(tcell.ColorMediumPurple)).
				SetAlign(tview.AlignRight))

		sv.resultTable.SetCell(row, 1,
			tview.NewTableCell(track.Title).
				SetStyle(rowStyle).
				SetExpansion(2))

		sv.resultTable.SetCell(row, 2,
			tview.NewTableCell(track.Artist).
				SetStyle(rowStyle.Foreground(tcell.ColorGray)).
				SetMaxWidth(20))

		sv.resultTable.SetCell(row, 3,
			tview.NewTableCell(string(track.Source)).
				SetStyle(rowStyle.Foreground(tcell.ColorGray)))

		sv.resultTable.SetCell(row, 4,
			tview.NewTableCell(FormatDuration(track.Duration)).
				SetStyle(rowStyle.Foreground(tcell.ColorGray)).
				SetAlign(tview.AlignRight))
	}

	sv.resultTable.SetSelectedStyle(tcell.StyleDefault.
		Background(tcell.ColorDarkSlateBlue).
		Foreground(tcell.ColorWhite))
}

// clearResults clears the result table
func (sv *SearchView) clearResults() {
	for i := sv.resultTable.GetRowCount() - 1; i > 0; i-- {
		sv.resultTable.RemoveRow(i)
	}
}
