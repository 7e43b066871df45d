package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/gltdhd/Spring-MVC-2/cmd/internal/app"
	"github.com/gltdhd/Spring-MVC-2/cmd/security/password"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("dotenv: %v", err)
	}

	serveFlags := []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "listen address (overrides HELLO_HTTP_ADDR)"},
		&cli.StringFlag{Name: "database-url", Usage: "Postgres URL (overrides HELLO_DATABASE_URL)"},
		&cli.BoolFlag{Name: "no-seed", Usage: "skip demo member and items"},
	}

	cmd := &cli.Command{
		Name:   "hello",
		Usage:  "login session and item validation server",
		Flags:  serveFlags,
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server (default)",
				Flags:  serveFlags,
				Action: serve,
			},
			{
				Name:      "hash-password",
				Usage:     "print the argon2id hash of a password read from the argument or stdin",
				ArgsUsage: "[password]",
				Action:    hashPassword,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg := app.LoadConfig()
	if cmd.IsSet("addr") {
		cfg.HTTPAddr = cmd.String("addr")
	}
	if cmd.IsSet("database-url") {
		cfg.DatabaseURL = cmd.String("database-url")
	}
	if cmd.Bool("no-seed") {
		cfg.SeedDemoData = false
	}
	return app.Serve(ctx, cfg)
}

func hashPassword(_ context.Context, cmd *cli.Command) error {
	pw, err := password.FromEnv()
	if err != nil {
		return err
	}

	plain := cmd.Args().First()
	if plain == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("hash-password: read stdin: %w", err)
		}
		plain = strings.TrimRight(line, "\r\n")
	}

	hash, err := pw.Hash(plain)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, hash)
	return err
}
