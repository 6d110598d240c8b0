package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"

	"team_chat/internal/client"
	"team_chat/internal/domain"
	"team_chat/internal/poller"
	"team_chat/pkg/logger"
)

// chatcli — терминальный клиент: логин, выбор канала,
// фоновая сверка сообщений и отправка строк из stdin.
func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "chat server base URL")
		email     = flag.String("email", "", "login email")
		password  = flag.String("password", "", "login password")
		channelID = flag.String("channel", "", "channel to open on start")
		interval  = flag.Duration("interval", 2*time.Second, "poll interval")
		pageSize  = flag.Int("page-size", 50, "messages per poll")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: chatcli -email <email> -password <password> [-channel <id>]")
		os.Exit(1)
	}

	log := logger.New("info")
	ctx := context.Background()

	api := client.New(*serverURL)
	login, err := api.Login(ctx, *email, *password)
	if err != nil {
		color.Red.Printf("login failed: %v\n", err)
		os.Exit(1)
	}
	color.Green.Printf("logged in as %s\n", login.User.DisplayName)

	channels, err := api.Channels(ctx)
	if err != nil {
		color.Red.Printf("failed to list channels: %v\n", err)
		os.Exit(1)
	}
	for _, ch := range channels {
		color.Cyan.Printf("  [%s] %s (%s)\n", ch.ID, ch.Name, ch.Kind)
	}

	active := *channelID
	if active == "" && len(channels) > 0 {
		active = channels[0].ID
	}
	if active == "" {
		color.Yellow.Println("no channels available, create one first")
		os.Exit(1)
	}

	p := poller.New(api, *interval, *pageSize, log)
	defer p.Close()

	go printDeltas(p, login.User.ID.String())

	p.Open(ctx, active)
	color.Green.Printf("opened channel %s\n", active)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/open "):
			// Переключение канала: предыдущий цикл опроса отменяется
			active = strings.TrimSpace(strings.TrimPrefix(line, "/open "))
			p.Open(ctx, active)
			color.Green.Printf("switched to channel %s\n", active)
		default:
			if _, err := api.Send(ctx, active, line); err != nil {
				color.Red.Printf("send failed: %v\n", err)
			}
		}
	}
}

func printDeltas(p *poller.Poller, selfID string) {
	for delta := range p.Deltas() {
		for _, msg := range delta.New {
			printMessage(msg, selfID)
		}
		if len(delta.New) == 0 {
			// Изменился состав без новых сообщений: правка или удаление
			color.Yellow.Printf("-- channel %s updated (%d messages) --\n", delta.ChannelID, len(delta.Snapshot))
			for _, msg := range delta.Snapshot {
				printMessage(msg, selfID)
			}
		}
	}
}

func printMessage(msg *domain.Message, selfID string) {
	stamp := msg.CreatedAt.Format("15:04:05")
	suffix := ""
	if msg.Edited {
		suffix = " (edited)"
	}
	if msg.AuthorID.String() == selfID {
		color.Green.Printf("[%s] you: %s%s\n", stamp, msg.Text, suffix)
	} else {
		color.White.Printf("[%s] %s: %s%s\n", stamp, msg.AuthorID, msg.Text, suffix)
	}
}
