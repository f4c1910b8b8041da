package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/logs"
	"chat-relay/projection"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL   string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	DisplayName string `env:"CHAT_DISPLAY_NAME,required=true"`
	LogLevel    string `env:"LOG_LEVEL,default=WARN"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the connection lifecycle: dial, join, then interleave stdin
// lines with relay events until either side goes away.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, config.ServerURL, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing connection...")
		_ = c.Close()
	}()

	if err := c.Join(config.DisplayName); err != nil {
		return exitRuntime, err
	}
	color.Cyan.Printf(">>> Connected to %s as %q (Ctrl+C to quit)\n", config.ServerURL, config.DisplayName)
	color.Gray.Println(`    "/w <id> <text>" sends a private message`)

	timeline := projection.NewTimeline(config.DisplayName)

	input := make(chan string)
	go func() {
		defer close(input)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-input:
			if !ok {
				return exitOK, nil
			}
			if err := send(c, line); err != nil {
				return exitRuntime, err
			}
		case evt, ok := <-c.Events:
			if !ok {
				color.Red.Println("Connection lost")
				return exitOK, nil
			}
			handleEvent(ctx, evt, timeline)
		}
	}
}

func send(c *client.Client, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if target, body, ok := parseWhisper(line); ok {
		return c.SendPrivate(target, body)
	}
	return c.SendPublic(line)
}

// parseWhisper recognizes "/w <connection-id> <text>".
func parseWhisper(line string) (string, string, bool) {
	if !strings.HasPrefix(line, "/w ") {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(line, "/w "), " ", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func handleEvent(ctx context.Context, evt client.Event, timeline *projection.Timeline) {
	switch evt.Name {
	case event.NameRosterUpdated:
		var roster []domain.Identity
		if err := json.Unmarshal(evt.Data, &roster); err != nil {
			return
		}
		renderRoster(roster)
	case event.NamePublicMessage, event.NamePrivateMessage:
		var msg domain.ChatMessage
		if err := json.Unmarshal(evt.Data, &msg); err != nil {
			return
		}
		_ = timeline.Consume(ctx, event.MessageReceived{Message: msg})
		printMessage(msg)
	case event.NameTypingUpdated:
		var names []string
		if err := json.Unmarshal(evt.Data, &names); err != nil {
			return
		}
		if len(names) > 0 {
			color.Gray.Printf("... %s typing\n", strings.Join(names, ", "))
		}
	case event.NameParticipantJoined:
		var who struct {
			Username string `json:"username"`
		}
		if err := json.Unmarshal(evt.Data, &who); err != nil {
			return
		}
		color.Green.Printf("%s joined the chat\n", who.Username)
	case event.NameParticipantLeft:
		var who struct {
			Username string `json:"username"`
		}
		if err := json.Unmarshal(evt.Data, &who); err != nil {
			return
		}
		color.Yellow.Printf("%s left the chat\n", who.Username)
	case event.NameJoinRejected, event.NameErrorNotice:
		var notice struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(evt.Data, &notice); err != nil {
			return
		}
		color.Red.Println(notice.Message)
	}
}

func printMessage(msg domain.ChatMessage) {
	stamp := msg.CreatedAt.Local().Format(time.TimeOnly)
	if msg.Scope == domain.ScopePrivate {
		color.Magenta.Printf("[%s] (private) %s: %s\n", stamp, msg.SenderName, msg.Body)
		return
	}
	fmt.Printf("[%s] %s: %s\n", stamp, msg.SenderName, msg.Body)
}

func renderRoster(roster []domain.Identity) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "USERNAME", "JOINED"})
	for _, identity := range roster {
		table.Append([]string{
			identity.ConnectionID,
			identity.DisplayName,
			identity.JoinedAt.Local().Format(time.TimeOnly),
		})
	}
	table.Render()
}
