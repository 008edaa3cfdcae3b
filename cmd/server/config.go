package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8000"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	HubBufferSize        int           `env:"HUB_BUFFER_SIZE,default=100"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	AuthTimeout          time.Duration `env:"AUTH_TIMEOUT,default=10s"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=4096"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	TokenSecret          string        `env:"TOKEN_SECRET,required=true"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
}
