package main

// Config defines the client-side environment variables.
type Config struct {
	ServerAddr   string `envconfig:"CHAT_SERVER_ADDR" default:"localhost:8000"`
	Email        string `envconfig:"CHAT_EMAIL" required:"true"`
	Password     string `envconfig:"CHAT_PASSWORD" required:"true"`
	HistoryLimit int    `envconfig:"CHAT_HISTORY_LIMIT" default:"20"`
}
