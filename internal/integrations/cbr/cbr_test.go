package cbr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dan9191/stress-service/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keyRateResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <KeyRateResponse xmlns="http://web.cbr.ru/">
      <KeyRateResult>
        <diffgr:diffgram xmlns:diffgr="urn:schemas-microsoft-com:xml-diffgram-v1">
          <KeyRate xmlns="">
            <KR><DT>2026-10-17T00:00:00+03:00</DT><Rate>16.50</Rate></KR>
            <KR><DT>2026-10-16T00:00:00+03:00</DT><Rate>17.00</Rate></KR>
          </KeyRate>
        </diffgr:diffgram>
      </KeyRateResult>
    </KeyRateResponse>
  </soap:Body>
</soap:Envelope>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *CBRClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewCBRClient(&config.Config{CBRURL: srv.URL, KeyRateMargin: 5}, log)
}

func TestGetKeyRate(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "http://web.cbr.ru/KeyRate", r.Header.Get("SOAPAction"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "<KeyRate xmlns=\"http://web.cbr.ru/\">")
		w.Write([]byte(keyRateResponse))
	})

	rate, err := client.GetKeyRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21.5, rate)

	// cached
	rate, err = client.GetKeyRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21.5, rate)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetKeyRate_CacheExpires(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(keyRateResponse))
	})
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	_, err := client.GetKeyRate(context.Background())
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)
	_, err = client.GetKeyRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetKeyRate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusInternalServerError, wantErr: "unexpected status code: 500"},
		{name: "malformed xml", status: http.StatusOK, body: "<root><unclosed>", wantErr: "failed to parse XML"},
		{name: "plain text", status: http.StatusOK, body: "rate: 16", wantErr: "no key rate data"},
		{name: "no rows", status: http.StatusOK, body: "<root><diffgram><KeyRate/></diffgram></root>", wantErr: "no key rate data"},
		{name: "no rate", status: http.StatusOK, body: "<root><diffgram><KeyRate><KR><DT>x</DT></KR></KeyRate></diffgram></root>", wantErr: "rate element not found"},
		{name: "bad rate", status: http.StatusOK, body: "<root><diffgram><KeyRate><KR><Rate>n/a</Rate></KR></KeyRate></diffgram></root>", wantErr: "failed to parse rate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := client.GetKeyRate(context.Background())
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestGetKeyRate_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(keyRateResponse))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetKeyRate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetKeyRate_CallerDeadlineDuringFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(keyRateResponse))
	})

	type outcome struct {
		rate float64
		err  error
	}
	slow := make(chan outcome, 1)
	go func() {
		rate, err := client.GetKeyRate(context.Background())
		slow <- outcome{rate: rate, err: err}
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := client.GetKeyRate(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	out := <-slow
	require.NoError(t, out.err)
	assert.Equal(t, 21.5, out.rate)
	assert.Equal(t, int32(1), calls.Load())
}
