package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Upcoming(ctx context.Context) error
	Stats(ctx context.Context) error
	Add(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Upload(ctx context.Context, path string) error
	ShowStatus(ctx context.Context) error
	Sync(ctx context.Context) error
	SetConnectivity(ctx context.Context, mode string) error
}

// runREPL starts a simple read–eval–print loop for the tripkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF, on cancellation of
// ctx, or when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - help                     show available commands
//	  - register | login         authenticate
//	  - status                   connectivity and pending changes
//	  - offline | online | auto  force or release the connectivity state
//	  - exit | quit              leave the program
//
//	Logged in, additionally:
//	  - trips | l                list trips
//	  - upcoming                 trips that have not started yet
//	  - stats                    trip, photo and country counts
//	  - add                      create a trip (queued when offline)
//	  - delete <id>              delete a trip
//	  - upload <path>            upload an image and print its URL
//	  - sync                     replay queued changes now
//	  - logout                   forget the session
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("tk %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: trips, upcoming, stats, add, delete <id>, upload <path>, status, sync, offline, online, auto, logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, offline, online, auto, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)

		case "l", "trips", "list":
			cmdErr = a.List(ctx)
		case "upcoming":
			cmdErr = a.Upcoming(ctx)
		case "stats":
			cmdErr = a.Stats(ctx)
		case "add":
			cmdErr = a.Add(ctx)

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			cmdErr = a.Delete(ctx, args[0])

		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <path>")
				continue
			}
			cmdErr = a.Upload(ctx, strings.Join(args, " "))

		case "status":
			cmdErr = a.ShowStatus(ctx)
		case "sync":
			cmdErr = a.Sync(ctx)
		case "offline", "online", "auto":
			cmdErr = a.SetConnectivity(ctx, cmd)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
