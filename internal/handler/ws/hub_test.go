package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PumpScan/internal/domain/models"
)

func TestHubBroadcastsReports(t *testing.T) {
	hub := NewHub(nil)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/reports"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(&models.ScanReport{ScanID: "scan-1", Trigger: "api"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "report", env.Type)
	assert.Equal(t, "scan-1", env.Data.ScanID)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	hub.Broadcast(&models.ScanReport{ScanID: "x"})
	assert.Equal(t, 0, hub.Clients())
}
