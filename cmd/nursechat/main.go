// nursechat is a terminal client for the nurse chat: it drives the relay
// against the local database for reads and the running backend's function
// endpoints for the AI/nurse bridges.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mamacare/models"
	"mamacare/pkg/config"
	"mamacare/pkg/realtime"
	"mamacare/pkg/relay"
	"mamacare/pkg/store"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	userID := flag.Uint("user", 0, "user id to chat as")
	userName := flag.String("name", "", "display name shown to nurses")
	server := flag.String("server", "http://localhost:"+config.Port, "backend base URL for the bridge endpoints")
	token := flag.String("token", os.Getenv("NURSECHAT_TOKEN"), "bearer token for the bridge endpoints")
	flag.Parse()

	if *userID == 0 {
		log.Fatal("-user is required")
	}

	db, err := gorm.Open(sqlite.Open(config.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	broker := realtime.NewBroker()
	cs := store.New(db, broker)
	bridge := &relay.FunctionsClient{BaseURL: *server, AuthToken: *token}

	home, _ := os.UserHomeDir()
	state := &relay.FileStateStore{Path: filepath.Join(home, ".nursechat-state.json")}

	r := relay.New(cs, bridge, bridge, broker, state, *userID, *userName)
	defer r.Close()
	r.Notify = func(msg string) { fmt.Println("! " + msg) }

	ctx := context.Background()
	convs := r.ListConversations(ctx)
	r.RestoreState(ctx)
	printConversations(convs)
	printPrompt(r)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			printPrompt(r)
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "quit", "exit":
			return
		case "list":
			printConversations(r.ListConversations(ctx))
		case "open":
			openConversation(ctx, r, arg)
		case "new":
			r.StartNew()
			fmt.Println("New conversation; it is created when you send the first message.")
		case "ai":
			send(ctx, r, arg, relay.ModeAI)
		case "human":
			send(ctx, r, arg, relay.ModeHuman)
		case "delete":
			deleteConversation(ctx, r, scanner, arg)
		case "messages":
			printMessages(r.Messages())
		case "help":
			fmt.Println("commands: list | open N | new | ai <msg> | human <msg> | messages | delete N | quit")
		default:
			fmt.Printf("unknown command %q (try help)\n", cmd)
		}
		printPrompt(r)
	}
}

func printPrompt(r *relay.Relay) {
	switch {
	case r.CreatingNew():
		fmt.Print("[new] > ")
	case r.Selected() != nil:
		fmt.Printf("[#%d] > ", r.Selected().ID)
	default:
		fmt.Print("> ")
	}
}

func printConversations(convs []models.Conversation) {
	if len(convs) == 0 {
		fmt.Println("No conversations yet. Type `new` to start one.")
		return
	}
	for _, c := range convs {
		fmt.Printf("  #%-4d %s  updated %s\n", c.ID, c.Status, c.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func printMessages(msgs []models.Message) {
	for _, m := range msgs {
		fmt.Printf("  [%s] %s\n", m.SenderType, m.Content)
	}
}

func openConversation(ctx context.Context, r *relay.Relay, arg string) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		fmt.Println("usage: open <conversation id>")
		return
	}
	for _, c := range r.ListConversations(ctx) {
		if c.ID == uint(id) {
			r.Select(ctx, c)
			printMessages(r.Messages())
			return
		}
	}
	fmt.Printf("conversation #%d not found\n", id)
}

func send(ctx context.Context, r *relay.Relay, text string, mode relay.Mode) {
	if err := r.Send(ctx, text, mode); err != nil {
		return // the relay already surfaced the error through Notify
	}
	printMessages(r.Messages())
}

func deleteConversation(ctx context.Context, r *relay.Relay, scanner *bufio.Scanner, arg string) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		fmt.Println("usage: delete <conversation id>")
		return
	}
	confirm := func() bool {
		fmt.Printf("Delete conversation #%d and all its messages? [y/N] ", id)
		if !scanner.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return answer == "y" || answer == "yes"
	}
	if err := r.Delete(ctx, uint(id), confirm); err == relay.ErrNotConfirmed {
		fmt.Println("Not deleted.")
	} else if err == nil {
		fmt.Printf("Conversation #%d deleted.\n", id)
	}
}
