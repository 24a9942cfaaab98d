// Package admin implements the authadmin operator commands.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/notify"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var ErrUsage = errors.New("usage: authadmin [-d dsn] deactivate|activate|status <email> | hash")

// Accounts is the part of services.AccountService the commands need.
type Accounts interface {
	SetActive(ctx context.Context, email string, active bool) (*models.User, error)
	Status(ctx context.Context, email string) (*services.AccountStatus, error)
}

type App struct {
	accounts Accounts
	hasher   *auth.PasswordHasher
	out      io.Writer
	db       *sql.DB
}

// NewApp opens the configured database and applies pending migrations.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFormat, os.Stderr)

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	codec, err := auth.NewSessionCodec([]byte(c.SecretKey), c.Algorithm)
	if err != nil {
		db.Close()
		return nil, err
	}

	hasher := auth.NewPasswordHasher(c.BcryptCost)
	mailer := notify.New(notify.NewLogTransport(logger), logger, c.MailTimeout)

	accounts, err := services.NewAccountService(db, rm, hasher, codec, mailer, logger, c)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{accounts: accounts, hasher: hasher, out: out, db: db}, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Execute runs the command named by args[0].
func (a *App) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "deactivate", "activate":
		if len(rest) != 1 {
			return ErrUsage
		}
		return a.setActive(ctx, rest[0], cmd == "activate")
	case "status":
		if len(rest) != 1 {
			return ErrUsage
		}
		return a.status(ctx, rest[0])
	case "hash":
		return a.hash()
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
	}
}

func (a *App) setActive(ctx context.Context, email string, active bool) error {
	u, err := a.accounts.SetActive(ctx, email, active)
	if err != nil {
		return describe(email, err)
	}

	state := "deactivated"
	if u.IsActive {
		state = "activated"
	}
	fmt.Fprintf(a.out, "%s (id %d) %s\n", u.Email, u.ID, state)
	return nil
}

func (a *App) status(ctx context.Context, email string) error {
	st, err := a.accounts.Status(ctx, email)
	if err != nil {
		return describe(email, err)
	}

	u := st.User
	name := "-"
	if u.FullName != nil {
		name = *u.FullName
	}

	fmt.Fprintf(a.out, "id:                  %d\n", u.ID)
	fmt.Fprintf(a.out, "email:               %s\n", u.Email)
	fmt.Fprintf(a.out, "full name:           %s\n", name)
	fmt.Fprintf(a.out, "verified:            %t\n", u.IsVerified)
	fmt.Fprintf(a.out, "active:              %t\n", u.IsActive)
	fmt.Fprintf(a.out, "created:             %s\n", u.CreatedAt.Format("2006-01-02 15:04:05Z07:00"))
	fmt.Fprintf(a.out, "pending resets:      %d\n", st.ActiveResetTokens)
	fmt.Fprintf(a.out, "pending verify:      %d\n", st.ActiveVerifyTokens)
	return nil
}

func (a *App) hash() error {
	fmt.Fprint(a.out, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)

	password := strings.TrimRight(string(pw), "\r\n")
	if len(password) > auth.MaxPasswordBytes {
		fmt.Fprintf(a.out, "warning: only the first %d bytes are significant\n", auth.MaxPasswordBytes)
	}

	h, err := a.hasher.Hash(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, h)
	return nil
}

func describe(email string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("no account registered as %q", email)
	}
	return err
}
