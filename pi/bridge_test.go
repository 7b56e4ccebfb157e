package pi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/atomic"
)

func TestPollingStopsAtDeadline(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Inc()
		json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
	}))
	defer srv.Close()

	var approvals atomic.Int64
	cb := Callbacks{
		OnReadyForServerApproval: func(string) { approvals.Inc() },
	}

	pollPayment(NewClient(srv.URL), "p1", cb, time.Millisecond, 30*time.Millisecond)

	if got := approvals.Load(); got != 1 {
		t.Errorf("approval callback fired %d times, want 1", got)
	}
	seen := requests.Load()
	if seen == 0 {
		t.Fatal("no status requests were made")
	}
	time.Sleep(20 * time.Millisecond)
	if got := requests.Load(); got != seen {
		t.Errorf("poll kept running after the deadline: %d -> %d requests", seen, got)
	}
}

func TestPollingDrivesCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "confirmed", "txid": "tx9"})
	}))
	defer srv.Close()

	done := make(chan string, 1)
	cb := Callbacks{
		OnReadyForServerCompletion: func(paymentID, txid string) { done <- paymentID + "/" + txid },
	}

	go pollPayment(NewClient(srv.URL), "p2", cb, time.Millisecond, time.Second)

	select {
	case got := <-done:
		if got != "p2/tx9" {
			t.Errorf("completion callback got %q, want %q", got, "p2/tx9")
		}
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}
}

func TestBridgeRejectsFailedCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Bridge(NewClient(srv.URL))(PaymentData{Amount: 1}, Callbacks{})
	if err == nil {
		t.Fatal("expected an error when payment creation fails")
	}
}
