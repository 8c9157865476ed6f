//go:build integration

package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	coremqtt "github.com/kilianp07/classplan/core/mqtt"
	"github.com/kilianp07/classplan/test/util"
)

func TestRefreshAndAnnounceAgainstMosquitto(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	defer cleanup()

	triggered := make(chan string, 1)
	server, err := NewPahoClient(Config{Enabled: true, Broker: broker, QoS: 1}, func(r string) {
		select {
		case triggered <- r:
		default:
		}
	})
	require.NoError(t, err)
	defer server.Disconnect()

	peer, err := NewPahoClient(Config{Enabled: true, Broker: broker, AnnounceTopic: "classplan/catalog/refresh", QoS: 1, MaxRetries: 1}, nil)
	require.NoError(t, err)
	defer peer.Disconnect()

	require.Eventually(t, func() bool {
		_ = peer.Announce(coremqtt.Announcement{Source: "test"})
		select {
		case r := <-triggered:
			return r == "mqtt"
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 100*time.Millisecond)
}
