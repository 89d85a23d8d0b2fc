package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/hiddengem/hiddengem/db"
)

func handleUsersCommand(ctx context.Context, args []string) {
	switch args[0] {
	case "add":
		if len(args) < 2 {
			fatal("Usage: hiddengem users add <email> [--admin]")
		}
		handleUsersAdd(ctx, args[1], len(args) > 2 && args[2] == "--admin")
	case "admin":
		if len(args) < 2 {
			fatal("Usage: hiddengem users admin <email>")
		}
		handleUsersAdmin(ctx, args[1])
	default:
		fmt.Printf("Unknown users command: %s\n", args[0])
	}
}

func handleUsersAdd(ctx context.Context, email string, admin bool) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		fatal("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	password, err := readPassword()
	if err != nil {
		fatal("Failed to read password: %v", err)
	}

	if _, err := database.CreateUser(ctx, email, password, admin); err != nil {
		fatal("Failed to create user: %v", err)
	}
	role := "user"
	if admin {
		role = "admin"
	}
	fmt.Printf("Created %s %s\n", role, email)
}

func handleUsersAdmin(ctx context.Context, email string) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		fatal("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	if err := database.SetAdmin(ctx, email, true); err != nil {
		fatal("Failed to grant admin: %v", err)
	}
	fmt.Printf("Granted admin to %s\n", email)
}

// readPassword prompts without echo on a terminal, and falls back to a
// plain line read when stdin is piped.
func readPassword() (string, error) {
	fmt.Print("Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
