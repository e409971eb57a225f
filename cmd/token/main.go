// Command token mints a bearer token for AUTH_MODE=local, signed with the
// JWT_SECRET and JWT_ISSUER the server is configured with.
//
// Usage:
//
//	token -sub alice [-email alice@example.com] [-name Alice] [-picture URL] [-ttl 24h]
//
// The token is printed on stdout, ready for an Authorization: Bearer header.
// In remote mode the identity provider issues tokens and this tool refuses
// to run.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sakif/vines-backend/internal/auth"
	"github.com/sakif/vines-backend/internal/config"
	"github.com/sakif/vines-backend/internal/model"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.Error("token not issued", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	var (
		dir     = fs.String("config-dir", ".", "directory holding app.yaml and .env")
		sub     = fs.String("sub", "", "user ID to put in the token (required)")
		email   = fs.String("email", "", "email claim")
		name    = fs.String("name", "", "display name claim")
		picture = fs.String("picture", "", "avatar URL claim")
		ttl     = fs.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*sub) == "" {
		return errors.New("-sub is required")
	}
	if *ttl <= 0 {
		return fmt.Errorf("-ttl must be positive, got %s", *ttl)
	}

	cfg, err := config.LoadFrom(*dir)
	if err != nil {
		return err
	}
	if cfg.AuthMode != config.AuthModeLocal {
		return fmt.Errorf("AUTH_MODE is %q; tokens can only be minted in %q mode", cfg.AuthMode, config.AuthModeLocal)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	token, err := tokens.GenerateWithDuration(model.Principal{
		UserID:      strings.TrimSpace(*sub),
		Email:       *email,
		DisplayName: *name,
		IconURL:     *picture,
	}, *ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, token)
	return err
}
