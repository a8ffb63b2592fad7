// Command flashadmin runs maintenance tasks against the flashcards
// database.
//
//	flashadmin migrate                      apply pending migrations
//	flashadmin create-user -email a@x.com   create an account (password prompted)
//
// The database is taken from -db, then DATABASE_URL, then the server's
// default path.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/BSoup1/flashcards/internal/auth"
	"github.com/BSoup1/flashcards/internal/config"
	"github.com/BSoup1/flashcards/internal/service"
	"github.com/BSoup1/flashcards/internal/storage"
)

// readPassword is replaced in tests.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

var errUsage = errors.New("usage: flashadmin [-db url] migrate | create-user -email address")

func main() {
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.LookupEnv, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, lookup func(string) (string, bool), out io.Writer) error {
	defaults := config.Config{}
	defaults.LoadDefaults()
	dbURL := defaults.DatabaseURL
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		dbURL = v
	}

	fs := flag.NewFlagSet("flashadmin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&dbURL, "db", dbURL, "database file path or postgres:// URL")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		return errUsage
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	switch fs.Arg(0) {
	case "migrate":
		return migrate(ctx, dbURL, logger)
	case "create-user":
		return createUser(ctx, dbURL, fs.Args()[1:], out, logger)
	default:
		return errUsage
	}
}

func migrate(ctx context.Context, dbURL string, logger *slog.Logger) error {
	store, err := storage.Open(ctx, dbURL)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("database is up to date", slog.String("backend", storage.Kind(dbURL)))
	return nil
}

func createUser(ctx context.Context, dbURL string, args []string, out io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "email address of the new account")
	if err := fs.Parse(args); err != nil || strings.TrimSpace(*email) == "" {
		return errUsage
	}

	fmt.Fprint(out, "Password: ")
	password, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	store, err := storage.Open(ctx, dbURL)
	if err != nil {
		return err
	}
	defer store.Close()

	users := service.NewAuthService(store.Users(), auth.NewPasswordService(), logger)
	user, err := users.Register(ctx, *email, string(password))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created user %s (%s)\n", user.Email, user.ID)
	return nil
}
