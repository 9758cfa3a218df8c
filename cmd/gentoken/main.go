// Package main provides a small tool to mint session tokens and export keys
// for local testing of the connector builder API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/autobridge/autobridge/internal/auth"
	"github.com/autobridge/autobridge/internal/export"
	"github.com/autobridge/autobridge/internal/validation"
	"github.com/autobridge/autobridge/pkg/logger"
)

func main() {
	sessionID := flag.String("session", "", "Session ID the token grants access to")
	secret := flag.String("secret", "", "Session secret (or set SESSION_SECRET env var)")
	expiry := flag.Duration("expiry", 24*time.Hour, "Token expiry duration")
	ageKeys := flag.Bool("age", false, "Print a new age key pair for EXPORT_AGE_RECIPIENT instead of a token")
	flag.Parse()

	if *ageKeys {
		recipient, identity, err := export.GenerateKeyPair()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating key pair: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("# recipient (EXPORT_AGE_RECIPIENT)\n%s\n# identity (keep secret)\n%s\n", recipient, identity)
		return
	}

	if err := validation.ValidateSessionID(*sessionID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Example: go run ./cmd/gentoken -session 5f1c... -secret 'your-secret-at-least-32-chars-long'")
		os.Exit(1)
	}

	sessionSecret := *secret
	if sessionSecret == "" {
		sessionSecret = os.Getenv("SESSION_SECRET")
	}
	if len(sessionSecret) < 32 {
		fmt.Fprintln(os.Stderr, "Error: session secret must be at least 32 characters. Use -secret flag or set SESSION_SECRET env var")
		os.Exit(1)
	}

	svc := auth.NewService(&auth.Config{
		Secret:      []byte(sessionSecret),
		TokenExpiry: *expiry,
	}, logger.Discard())

	token, err := svc.GenerateToken(*sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
