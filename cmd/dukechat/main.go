// Command dukechat is a terminal client for a dukelink relay. It is the
// lobby surface of the game client without the board: join rooms, chat,
// whisper, and watch relayed match traffic as plain text.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"dukelink"
	"dukelink/client"
)

func main() {
	addr := flag.String("addr", "localhost:8888", "relay address")
	name := flag.String("name", "", "display name to announce after connecting")
	flag.Parse()

	logger := log.New(os.Stderr, "", 0)

	c := client.New(*addr, logger)

	show := func(prefix string) client.Handler {
		return func(payload string) {
			fmt.Printf("%s %s\n", prefix, payload)
		}
	}

	c.Handle(dukelink.CmdUID, show("[uid]"))
	c.Handle(dukelink.CmdName, show("[name]"))
	c.Handle(dukelink.CmdRoom, show("[room]"))
	c.Handle(dukelink.CmdRooms, func(payload string) {
		for _, entry := range strings.Split(payload, ",") {
			fmt.Printf("[rooms] %s\n", entry)
		}
	})
	c.Handle(dukelink.CmdInfo, show("[info]"))
	c.Handle(dukelink.CmdRelay, show("[chat]"))
	c.Handle(dukelink.CmdRoomReady, func(string) { fmt.Println("[match] both seats filled, match starting") })
	c.Handle(dukelink.CmdPositions, show("[match] opponent setup:"))
	c.Handle(dukelink.CmdMove, func(payload string) {
		if payload == "" {
			fmt.Println("[match] your turn")
			return
		}
		fmt.Printf("[match] opponent move: %s\n", payload)
	})
	c.Handle(dukelink.CmdSpawnOpponent, show("[match] opponent spawn:"))
	c.Handle(dukelink.CmdWon, func(string) { fmt.Println("[match] you won") })
	c.Handle(dukelink.CmdLost, func(string) { fmt.Println("[match] you lost") })

	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		logger.Fatalf("connect failed: %v", err)
	}
	defer c.Close()

	if *name != "" {
		if err := c.Send(dukelink.CmdName, *name); err != nil {
			logger.Fatalf("set name failed: %v", err)
		}
	}

	go func() {
		<-c.Done()
		logger.Println("disconnected")
		os.Exit(0)
	}()

	// Input lines are COMMAND or COMMAND:PAYLOAD, e.g. "room:alpha",
	// "a:hello", "get_rooms".
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			return
		}

		command, payload, _ := strings.Cut(line, ":")
		if err := c.Send(command, payload); err != nil {
			logger.Printf("send failed: %v", err)
		}
	}
}
