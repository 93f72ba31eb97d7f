package gateway

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSandboxClient_SubmitOrder(t *testing.T) {
	client := NewSandboxClient("http://localhost:8080")

	resp, err := client.SubmitOrder(context.Background(), OrderRequest{
		MerchantReference: "EXP-TEST1",
		AmountCents:       100000,
		Currency:          "USD",
	})

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.TrackingID, "SBX-"))
	assert.Equal(t, "http://localhost:8080/payments/simulate?tracking_id="+resp.TrackingID, resp.RedirectURL)

	status, err := client.TransactionStatus(context.Background(), resp.TrackingID)
	assert.NoError(t, err)
	assert.Equal(t, StatusPending, status.Status)
	assert.Equal(t, int64(100000), status.AmountCents)
	assert.Equal(t, "USD", status.Currency)
}

func TestSandboxClient_SetResult(t *testing.T) {
	client := NewSandboxClient("http://localhost:8080")

	resp, err := client.SubmitOrder(context.Background(), OrderRequest{MerchantReference: "EXP-TEST2", AmountCents: 5000, Currency: "USD"})
	assert.NoError(t, err)

	assert.NoError(t, client.SetResult(resp.TrackingID, StatusCompleted))

	status, err := client.TransactionStatus(context.Background(), resp.TrackingID)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, "SandboxCard", status.PaymentMethod)
	assert.NotEmpty(t, status.ConfirmationCode)
}

func TestSandboxClient_ConcurrentPollAndResult(t *testing.T) {
	client := NewSandboxClient("http://localhost:8080")

	resp, err := client.SubmitOrder(context.Background(), OrderRequest{MerchantReference: "EXP-TEST3", AmountCents: 7500, Currency: "USD"})
	assert.NoError(t, err)

	var torn atomic.Int64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			status, err := client.TransactionStatus(context.Background(), resp.TrackingID)
			if err != nil {
				continue
			}
			// A completed snapshot always carries its method and code.
			if status.Status == StatusCompleted && (status.PaymentMethod == "" || status.ConfirmationCode == "") {
				torn.Add(1)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = client.SetResult(resp.TrackingID, StatusCompleted)
			_ = client.SetResult(resp.TrackingID, StatusPending)
		}
	}()
	wg.Wait()

	assert.Zero(t, torn.Load())
}

func TestSandboxClient_UnknownTrackingID(t *testing.T) {
	client := NewSandboxClient("http://localhost:8080")

	_, err := client.TransactionStatus(context.Background(), "SBX-missing")
	assert.Error(t, err)

	assert.Error(t, client.SetResult("SBX-missing", StatusFailed))
}
