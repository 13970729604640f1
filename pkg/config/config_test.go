package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	// Given no config file at all
	cfg, err := load(viper.New())

	// Then the defaults apply
	req.NoError(err)
	req.Equal(":8080", cfg.Server.Address)
	req.Equal(10*time.Second, cfg.Server.ShutdownTimeout)
	req.Equal(int64(4096), cfg.WebSocket.ReadLimit)
	req.Equal(256, cfg.WebSocket.SendBuffer)
	req.Equal(60*time.Second, cfg.WebSocket.PongWait)
	req.Equal(54*time.Second, cfg.WebSocket.PingPeriod)
	req.Equal([]string{"*"}, cfg.WebSocket.AllowedOrigins)
	req.Equal("lobby", cfg.Relay.LobbyRoom)
	req.True(cfg.Relay.AnnounceDepartures)
	req.Equal("INFO", cfg.Log.Level)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	req := require.New(t)

	// Given a config file
	path := filepath.Join(t.TempDir(), "config.yaml")
	req.NoError(os.WriteFile(path, []byte(`
server:
  address: ":9000"
websocket:
  send_buffer: 16
  allowed_origins:
    - http://localhost:3000
relay:
  announce_departures: false
`), 0o600))

	// And an environment override
	t.Setenv("CHAT_RELAY_LOBBY_ROOM", "main")
	t.Setenv("CHAT_LOG_LEVEL", "DEBUG")

	v := viper.New()
	v.SetConfigFile(path)
	cfg, err := load(v)

	req.NoError(err)
	req.Equal(":9000", cfg.Server.Address)
	req.Equal(16, cfg.WebSocket.SendBuffer)
	req.Equal([]string{"http://localhost:3000"}, cfg.WebSocket.AllowedOrigins)
	req.False(cfg.Relay.AnnounceDepartures)
	req.Equal("main", cfg.Relay.LobbyRoom)
	req.Equal("DEBUG", cfg.Log.Level)
}

func TestLoad_RejectsPingSlowerThanPong(t *testing.T) {
	t.Setenv("CHAT_WEBSOCKET_PING_PERIOD", "2m")

	_, err := load(viper.New())
	require.Error(t, err)
}

func TestLoad_RejectsEmptyBuffers(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{name: "zero send buffer", env: "CHAT_WEBSOCKET_SEND_BUFFER", val: "0"},
		{name: "negative send buffer", env: "CHAT_WEBSOCKET_SEND_BUFFER", val: "-1"},
		{name: "zero read limit", env: "CHAT_WEBSOCKET_READ_LIMIT", val: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given a websocket queue setting that cannot hold a single message
			t.Setenv(tt.env, tt.val)

			// When the config is loaded
			cfg, err := load(viper.New())

			// Then it is refused
			require.Error(t, err)
			require.Nil(t, cfg)
		})
	}
}
