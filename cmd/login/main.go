package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"photoframe/internal/provider"
)

const defaultTimeout = 30 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	baseURL := os.Getenv("PROVIDER_URL")
	account := os.Getenv("PROVIDER_ACCOUNT")
	space := envInt("PROVIDER_SPACE", 0)

	reader := bufio.NewReader(os.Stdin)
	if baseURL == "" {
		baseURL = prompt(reader, "Provider URL: ")
	}
	if account == "" {
		account = prompt(reader, "Account: ")
	}
	if baseURL == "" || account == "" {
		fmt.Fprintln(os.Stderr, "Error: provider URL and account are required")
		os.Exit(1)
	}

	password := os.Getenv("PROVIDER_PASSWORD")
	if password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
			os.Exit(1)
		}
		password = string(raw)
	}

	client := provider.NewSynoClient(baseURL, account, password, space)

	authCtx, cancelAuth := context.WithTimeout(ctx, defaultTimeout)
	defer cancelAuth()

	if err := client.Authenticate(authCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Authenticated with %s as %s\n", baseURL, account)

	listCtx, cancelList := context.WithTimeout(ctx, defaultTimeout)
	defer cancelList()

	photos, err := client.ListPhotos(listCtx, provider.Filter{}, 0, 5)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Listing photos failed: %v\n", err)
		os.Exit(1)
	}
	if len(photos) == 0 {
		fmt.Println("Listing works, but the collection is empty.")
		return
	}

	fmt.Printf("Collection reachable, first %d photos:\n", len(photos))
	for _, p := range photos {
		fmt.Printf("  %-12s %s\n", p.Identity(), p.Name)
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func envInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s %q, using %d\n", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
