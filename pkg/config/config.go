package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Relay     RelayConfig
	Log       LogConfig
}

type ServerConfig struct {
	Address         string
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	ReadLimit      int64         `mapstructure:"read_limit"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type RelayConfig struct {
	LobbyRoom          string `mapstructure:"lobby_room"`
	AnnounceDepartures bool   `mapstructure:"announce_departures"`
}

type LogConfig struct {
	Level string
}

// Load 讀取設定，依序套用預設值、config.yaml 以及 CHAT_ 開頭的環境變數
// 找不到設定檔時只使用預設值與環境變數
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./pkg/config")
	v.AddConfigPath(".")
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("chat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.WebSocket.PingPeriod >= config.WebSocket.PongWait {
		return nil, errors.New("websocket.ping_period must be shorter than websocket.pong_wait")
	}
	// 發送佇列為 0 時每次投遞都會失敗
	if config.WebSocket.SendBuffer < 1 {
		return nil, fmt.Errorf("websocket.send_buffer must be at least 1, got %d", config.WebSocket.SendBuffer)
	}
	if config.WebSocket.ReadLimit < 1 {
		return nil, fmt.Errorf("websocket.read_limit must be at least 1, got %d", config.WebSocket.ReadLimit)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("websocket.read_limit", 4096)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.pong_wait", 60*time.Second)
	v.SetDefault("websocket.ping_period", 54*time.Second)
	v.SetDefault("websocket.write_wait", 10*time.Second)
	v.SetDefault("websocket.allowed_origins", []string{"*"})

	v.SetDefault("relay.lobby_room", "lobby")
	v.SetDefault("relay.announce_departures", true)

	v.SetDefault("log.level", "INFO")
}
