package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/jgirmay/chatroom/pkg/client"
	"github.com/jgirmay/chatroom/pkg/logging"
)

const version = "1.0.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return nil
	}

	command, rest := args[0], args[1:]
	switch command {
	case "online":
		return onlineCommand(rest)
	case "online-users":
		return onlineUsersCommand(rest)
	case "heartbeat":
		return heartbeatCommand(rest)
	case "conversations":
		return conversationsCommand(rest)
	case "mark-read":
		return markReadCommand(rest)
	case "version":
		fmt.Printf("presencectl version %s\n", version)
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Print(`presencectl - command-line client for the chat presence API

USAGE:
    presencectl <command> [options]

COMMANDS:
    online          List participants online in a room (--room)
    online-users    List users online anywhere (--exclude)
    heartbeat       Send heartbeats for a user (--user, --room, --loop)
    conversations   List a user's private conversations (--user)
    mark-read       Mark messages from --sender to --receiver as read
    version         Show CLI version
    help            Show this help message

GLOBAL OPTIONS:
    --url       API base URL (default: http://localhost:8080)
    --format    Output format: text or json (default: text)
`)
}

type globalFlags struct {
	url    *string
	format *string
}

func newFlagSet(name string) (*flag.FlagSet, globalFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	g := globalFlags{
		url:    fs.String("url", envOr("CHAT_API_URL", "http://localhost:8080"), "API base URL"),
		format: fs.String("format", "text", "Output format (text, json)"),
	}
	return fs, g
}

func onlineCommand(args []string) error {
	fs, g := newFlagSet("online")
	room := fs.Uint("room", 0, "Room ID")
	fs.Parse(args)
	if *room == 0 {
		return fmt.Errorf("--room is required")
	}

	ctx, cancel := commandContext()
	defer cancel()

	online, err := client.NewClient(*g.url).RoomOnline(ctx, uint(*room))
	if err != nil {
		return err
	}
	if *g.format == "json" {
		return printJSON(online)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME")
	for _, p := range online {
		fmt.Fprintf(w, "%d\t%s\n", p.ID, p.Username)
	}
	return w.Flush()
}

func onlineUsersCommand(args []string) error {
	fs, g := newFlagSet("online-users")
	exclude := fs.Uint("exclude", 0, "User ID to leave out")
	fs.Parse(args)

	ctx, cancel := commandContext()
	defer cancel()

	users, err := client.NewClient(*g.url).GlobalOnline(ctx, uint(*exclude))
	if err != nil {
		return err
	}
	if *g.format == "json" {
		return printJSON(users)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tLAST ACTIVE")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.LastActive.Local().Format(time.Kitchen))
	}
	return w.Flush()
}

func heartbeatCommand(args []string) error {
	fs, g := newFlagSet("heartbeat")
	user := fs.Uint("user", 0, "User ID")
	room := fs.Uint("room", 0, "Room ID (global presence when omitted)")
	loop := fs.Bool("loop", false, "Keep sending until interrupted")
	interval := fs.Duration("interval", client.DefaultInterval, "Heartbeat interval")
	fs.Parse(args)
	if *user == 0 {
		return fmt.Errorf("--user is required")
	}

	c := client.NewClient(*g.url)
	logger, err := logging.NewLogger(logging.InfoLevel, "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	var h *client.Heartbeater
	if *room != 0 {
		h = c.RoomHeartbeater(uint(*room), uint(*user), *interval, logger)
	} else {
		h = c.GlobalHeartbeater(uint(*user), *interval, logger)
	}

	if !*loop {
		ctx, cancel := commandContext()
		defer cancel()
		return h.Beat(ctx)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("sending heartbeats", zap.Uint("user", *user), zap.Uint("room", *room), zap.Duration("interval", *interval))
	h.Start(ctx)
	<-ctx.Done()
	h.Stop()

	// leave explicitly so others see us go right away
	leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if *room != 0 {
		return c.Leave(leaveCtx, uint(*room), uint(*user))
	}
	return c.GoOffline(leaveCtx, uint(*user))
}

func conversationsCommand(args []string) error {
	fs, g := newFlagSet("conversations")
	user := fs.Uint("user", 0, "User ID")
	fs.Parse(args)
	if *user == 0 {
		return fmt.Errorf("--user is required")
	}

	ctx, cancel := commandContext()
	defer cancel()

	views, err := client.NewClient(*g.url).Conversations(ctx, uint(*user))
	if err != nil {
		return err
	}
	if *g.format == "json" {
		return printJSON(views)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tUNREAD\tLAST MESSAGE\tAT")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", v.Profile.Username, v.UnreadCount, truncate(v.LastMessage, 40), v.LastMessageAt.Local().Format(time.Stamp))
	}
	return w.Flush()
}

func markReadCommand(args []string) error {
	fs, g := newFlagSet("mark-read")
	sender := fs.Uint("sender", 0, "Sender user ID")
	receiver := fs.Uint("receiver", 0, "Receiver user ID")
	fs.Parse(args)

	ctx, cancel := commandContext()
	defer cancel()

	updated, err := client.NewClient(*g.url).MarkAsRead(ctx, uint(*sender), uint(*receiver))
	if err != nil {
		return err
	}
	if *g.format == "json" {
		return printJSON(map[string]int64{"updated": updated})
	}
	fmt.Printf("%d messages marked as read\n", updated)
	return nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
