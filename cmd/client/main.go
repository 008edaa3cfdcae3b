// Command client is a small terminal chat client for the relay.
// It authenticates over the WebSocket endpoint, prints incoming
// messages, and sends each stdin line as a chat frame. With -history
// it renders the recent message log as a table and exits.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type clientEnvelope struct {
	Type     string `json:"type"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Content  string `json:"content,omitempty"`
}

type chatMessage struct {
	UserEmail string `json:"user_email"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type serverEnvelope struct {
	Status  string       `json:"status"`
	Message *chatMessage `json:"message,omitempty"`
	Info    string       `json:"info,omitempty"`
}

type historyResponse struct {
	Status   string        `json:"status"`
	Messages []chatMessage `json:"messages"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	history := flag.Bool("history", false, "print recent messages and exit")
	flag.Parse()

	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	if *history {
		return printHistory(config)
	}
	return chat(config)
}

// printHistory fetches the bounded recent log and renders it.
func printHistory(config Config) (int, error) {
	endpoint := fmt.Sprintf("http://%s/messages?limit=%d", config.ServerAddr, config.HistoryLimit)
	resp, err := http.Get(endpoint)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not fetch history: %w", err)
	}
	defer resp.Body.Close()

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return exitRuntime, fmt.Errorf("malformed history response: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "User", "Message"})
	for _, message := range body.Messages {
		table.Append([]string{message.Timestamp, message.Username, message.Content})
	}
	table.Render()
	return exitOK, nil
}

// chat runs the interactive session: authenticate, then pump stdin
// lines out and server envelopes in until Ctrl+C or disconnect.
func chat(config Config) (int, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := url.URL{Scheme: "ws", Host: config.ServerAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", endpoint.String(), err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(clientEnvelope{
		Type:     "auth",
		Email:    config.Email,
		Password: config.Password,
	}); err != nil {
		return exitRuntime, fmt.Errorf("auth send failed: %w", err)
	}

	var reply serverEnvelope
	if err := conn.ReadJSON(&reply); err != nil {
		return exitRuntime, fmt.Errorf("auth reply failed: %w", err)
	}
	if reply.Status != "authenticated" {
		return exitRuntime, fmt.Errorf("authentication rejected: %s", reply.Info)
	}
	color.Green.Println(reply.Info)

	// Outgoing direction: stdin lines become chat frames.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			if err := conn.WriteJSON(clientEnvelope{Type: "chat", Content: line}); err != nil {
				return
			}
		}
	}()

	// Closing the socket on Ctrl+C unblocks the read loop below.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var envelope serverEnvelope
		if err := conn.ReadJSON(&envelope); err != nil {
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		}

		switch envelope.Status {
		case "message":
			if envelope.Message == nil {
				continue
			}
			color.Cyan.Printf("[%s] ", envelope.Message.Timestamp)
			color.Bold.Printf("%s: ", envelope.Message.Username)
			fmt.Println(envelope.Message.Content)
		case "error":
			color.Red.Println(envelope.Info)
		}
	}
}
