package pi

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// bridgePollInterval paces the status polling while the user walks
// through the wallet dialog.
const bridgePollInterval = 2 * time.Second

// Bridge returns a Starter that drives the payment callbacks by creating
// the payment on the app server and polling its status. On platforms with
// the native platform SDK the SDK fires the callbacks itself; here the
// server is the source of truth. The poll stops at a final status or at
// the abandonment deadline, whichever comes first.
func Bridge(client *Client) Starter {
	return func(data PaymentData, cb Callbacks) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		var created struct {
			PaymentID string `json:"payment_id"`
		}
		if err := client.post(ctx, "/api/payments/create", data, &created); err != nil {
			return errors.Wrap(err, "create payment")
		}
		if created.PaymentID == "" {
			return errors.New("create payment: empty payment id")
		}

		go pollPayment(client, created.PaymentID, cb, bridgePollInterval, abandonDeadline)
		return nil
	}
}

// pollPayment watches one payment and fires each callback once. The poll
// gives up at the same deadline the flow uses for abandonment, so a
// payment stuck in pending cannot leak the goroutine.
func pollPayment(client *Client, paymentID string, cb Callbacks, interval, deadline time.Duration) {
	expire := time.Now().Add(deadline)
	approvalSent := false

	for time.Now().Before(expire) {
		time.Sleep(interval)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var status struct {
			Status string `json:"status"`
			Txid   string `json:"txid"`
		}
		err := client.post(ctx, "/api/payments/status",
			map[string]string{"payment_id": paymentID}, &status)
		cancel()
		if err != nil {
			// Transient server trouble; keep polling, the flow deadline
			// bounds how long.
			log.WithError(err).Debug("payment status poll failed")
			continue
		}

		switch status.Status {
		case "pending":
			if !approvalSent && cb.OnReadyForServerApproval != nil {
				approvalSent = true
				cb.OnReadyForServerApproval(paymentID)
			}
		case "confirmed":
			if cb.OnReadyForServerCompletion != nil {
				cb.OnReadyForServerCompletion(paymentID, status.Txid)
			}
			return
		case "cancelled":
			if cb.OnCancel != nil {
				cb.OnCancel()
			}
			return
		case "failed":
			if cb.OnError != nil {
				cb.OnError(errors.New("payment failed on the platform"))
			}
			return
		}
	}

	// The flow's own deadline has already moved it to a terminal state.
	log.WithField("payment_id", paymentID).Debug("payment poll gave up")
}
