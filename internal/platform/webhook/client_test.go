package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient(retries int) *Client {
	return NewClient(Config{
		Timeout:      2 * time.Second,
		MaxRetries:   retries,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 5 * time.Millisecond,
	})
}

func TestDeliver_SignsAndSendsHeaders(t *testing.T) {
	body := []byte(`{"type":"post.published"}`)

	var gotBody []byte
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := fastClient(0).Deliver(context.Background(), Delivery{
		URL:        srv.URL,
		Secret:     "0123456789abcdef",
		EventType:  "post.published",
		DeliveryID: "d-1",
		Body:       body,
	})

	require.NoError(t, err)
	assert.Equal(t, body, gotBody)
	assert.Equal(t, "post.published", gotHeaders.Get(HeaderEvent))
	assert.Equal(t, "d-1", gotHeaders.Get(HeaderDelivery))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.True(t, Verify("0123456789abcdef", body, gotHeaders.Get(HeaderSignature)))
}

func TestDeliver_UnsignedWithoutSecret(t *testing.T) {
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get(HeaderSignature)
	}))
	defer srv.Close()

	require.NoError(t, fastClient(0).Deliver(context.Background(), Delivery{URL: srv.URL, Body: []byte(`{}`)}))
	assert.Empty(t, sig)
}

func TestDeliver_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, fastClient(3).Deliver(context.Background(), Delivery{URL: srv.URL, Body: []byte(`{}`)}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDeliver_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	err := fastClient(3).Deliver(context.Background(), Delivery{URL: srv.URL, Body: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrDeliveryRejected)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDeliver_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := fastClient(2).Deliver(context.Background(), Delivery{URL: srv.URL, Body: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrDeliveryRejected)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDeliver_NoRetriesConfigured(t *testing.T) {
	tests := []struct {
		name    string
		retries int
	}{
		{name: "zero", retries: 0},
		{name: "negative", retries: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			err := fastClient(tt.retries).Deliver(context.Background(), Delivery{URL: srv.URL, Body: []byte(`{}`)})
			assert.ErrorIs(t, err, ErrDeliveryRejected)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestSignVerify(t *testing.T) {
	sig := Sign("secret", []byte("payload"))
	assert.Contains(t, sig, "sha256=")
	assert.True(t, Verify("secret", []byte("payload"), sig))
	assert.False(t, Verify("other", []byte("payload"), sig))
	assert.False(t, Verify("secret", []byte("tampered"), sig))
}
