package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	log "github.com/sirupsen/logrus"

	"github.com/purplemusic/purplemusic/pi"
)

// PremiumView runs the premium purchase. The payment lives in an explicit
// state machine; this view only renders its transitions and never blocks
// on a wallet dialog that may never answer.
type PremiumView struct {
	app       *App
	container *tview.Flex
	textView  *tview.TextView
	isActive  bool

	flow *pi.Flow
}

// NewPremiumView creates the premium purchase view
func NewPremiumView(app *App) *PremiumView {
	pv := &PremiumView{
		app: app,
	}

	pv.textView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	pv.container = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(pv.textView, 0, 1, true)

	pv.container.SetBorder(true).
		SetTitle(" PurpleMusic Premium [ENTER: Buy | ESC: Close] ").
		SetBorderColor(tcell.ColorMediumPurple)

	return pv
}

// Show displays the premium view
func (pv *PremiumView) Show() {
	pv.isActive = true
	pv.render()
	pv.app.tviewApp.SetFocus(pv.textView)
}

// Close hides the premium view. A flow still in progress keeps running;
// its dismissal is remembered so startup does not nag.
func (pv *PremiumView) Close() {
	pv.isActive = false
	if pv.flow != nil && !pv.flow.State().Terminal() {
		if id := pv.flow.PaymentID(); id != "" {
			pv.app.persist.MarkPaymentDismissed(id)
		}
	}
	pv.app.returnToBrowse()
}

// IsActive returns whether the premium view is active
func (pv *PremiumView) IsActive() bool {
	return pv.isActive
}

// GetContainer returns the premium view container
func (pv *PremiumView) GetContainer() *tview.Flex {
	return pv.container
}

// HandleKey consumes the view's keys.
func (pv *PremiumView) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyEscape:
		pv.Close()
		return nil
	case event.Key() == tcell.KeyEnter:
		pv.purchase()
		return nil
	}
	return nil
}

// purchase starts a fresh payment flow.
func (pv *PremiumView) purchase() {
	if pv.app.user.UID == "" {
		pv.textView.SetText("\n[yellow]Sign in first (press ESC, then 'a')")
		return
	}
	if pv.app.user.Premium {
		return
	}
	if pv.flow != nil && !pv.flow.State().Terminal() {
		return
	}

	pv.flow = pi.NewFlow(pv.app.piClient, pv.onFlowChange)
	data := pi.PaymentData{
		Amount: pv.app.cfg.Services.PremiumPrice,
		Memo:   pv.app.cfg.Services.PaymentMemo,
	}
	go func() {
		if err := pv.flow.Start(pv.app.starter, data); err != nil {
			log.WithError(err).Warn("starting payment failed")
		}
	}()
	pv.render()
}

// onFlowChange renders every flow transition; on done it raises the
// premium flag everywhere it lives.
func (pv *PremiumView) onFlowChange(state pi.FlowState, _ error) {
	if state == pi.FlowDone {
		if err := pv.app.users.SetPremium(pv.app.user.UID, true); err != nil {
			log.WithError(err).Warn("recording premium failed")
		}
	}

	pv.app.tviewApp.QueueUpdateDraw(func() {
		if state == pi.FlowDone {
			pv.app.user.Premium = true
			pv.app.persist.SaveProfile(pv.app.user)
		}
		if pv.isActive {
			pv.render()
		}
	})
}

// render paints the current purchase state.
func (pv *PremiumView) render() {
	if pv.app.user.Premium {
		pv.textView.SetText(`
[lightgreen::b]Premium active[-:-:-]

[gray]Unlimited queue length and all sources unlocked.`)
		return
	}

	status := "[gray]Press ENTER to buy premium"
	if pv.flow != nil {
		switch pv.flow.State() {
		case pi.FlowApproving:
			status = "[yellow]Waiting for approval..."
		case pi.FlowCompleting:
			status = "[yellow]Completing payment..."
		case pi.FlowDone:
			status = "[lightgreen]Payment complete!"
		case pi.FlowCancelled:
			status = "[gray]Payment cancelled. ENTER to retry"
		case pi.FlowError:
			status = "[red]Payment failed. ENTER to retry"
		}
	}

	pv.textView.SetText(fmt.Sprintf(`
[white::b]PurpleMusic Premium[-:-:-]

[gray]Unlimited queue length, all sources.
[gray]Price: [white]%.2f Pi

%s`, pv.app.cfg.Services.PremiumPrice, status))
}
