package bridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/rabarar/mqtt-meshtastic-bridge/public/broker"
)

// TestConcurrentBroadcastDuringConnClose pairs a real client connection
// reading and closing against the broker's own goroutine broadcasting
// concurrently, the same shape as a net.Pipe round trip run under
// errgroup: both sides are joined with eg.Wait so the test fails loudly if
// either side errors, and the race detector catches a send on a closed
// channel if ServeWS's shutdown ever again races conn.enqueue.
func TestConcurrentBroadcastDuringConnClose(t *testing.T) {
	fb := newFakeBroker()
	b := New(testConfig(), fb)

	srv := httptest.NewServer(http.HandlerFunc(b.ServeWS))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	var eg errgroup.Group
	eg.Go(func() error {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			return err
		}
		// Read the initial status/subscriptions frames, then drop the
		// connection while the broadcaster below is still hammering it.
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
		return conn.Close()
	})
	eg.Go(func() error {
		var wg sync.WaitGroup
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleBrokerMessage(broker.Message{
					Topic:   "msh/EU_868/2/json/LongFast/!00000001",
					Payload: []byte(`{"from":1,"to":2,"type":"sendtext","payload":"hi"}`),
				})
			}()
		}
		wg.Wait()
		return nil
	})
	require.NoError(t, eg.Wait())
}
