// Package ctl implements casinoctl, the one-shot operator CLI.
package ctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/guildcasino/casino/internal/auth"
	"github.com/guildcasino/casino/internal/ledger"
)

// Commands understood by casinoctl.
const (
	CmdMigrate   = "migrate"
	CmdToken     = "token"
	CmdGrant     = "grant"
	CmdReconcile = "reconcile"
)

// Usage is printed for a missing or unknown command.
const Usage = `usage: casinoctl <command> [flags]

commands:
  migrate    apply pending migrations (-down N reverts N)
  token      mint a service or admin JWT
  grant      add a signed delta to a user's balance
  reconcile  compare a guild's stats with its settled rounds`

// Config is one parsed invocation.
type Config struct {
	Command string

	Down int

	Realm   string
	Subject string
	Role    string
	Guilds  string

	UserID string
	Delta  int64

	GuildID string
}

// NeedsDatabase reports whether the command talks to Postgres.
func (c Config) NeedsDatabase() bool {
	return c.Command != CmdToken
}

// ParseConfig reads the command name and its flags from args.
func ParseConfig(args []string, stderr io.Writer) (Config, error) {
	if len(args) == 0 {
		return Config{}, errors.New(Usage)
	}
	cfg := Config{Command: args[0]}
	fs := flag.NewFlagSet("casinoctl "+cfg.Command, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch cfg.Command {
	case CmdMigrate:
		fs.IntVar(&cfg.Down, "down", 0, "revert this many migrations instead of applying")
	case CmdToken:
		fs.StringVar(&cfg.Realm, "realm", string(auth.RealmService), "service or admin")
		fs.StringVar(&cfg.Subject, "subject", "", "token subject (bot or operator name)")
		fs.StringVar(&cfg.Role, "role", auth.RoleViewer, "admin role: viewer, operator or superadmin")
		fs.StringVar(&cfg.Guilds, "guilds", "", "comma-separated guild ids; empty allows every guild")
	case CmdGrant:
		fs.StringVar(&cfg.UserID, "user", "", "user id")
		fs.Int64Var(&cfg.Delta, "delta", 0, "signed credit change")
	case CmdReconcile:
		fs.StringVar(&cfg.GuildID, "guild", "", "guild id")
	default:
		return Config{}, fmt.Errorf("unknown command %q\n%s", cfg.Command, Usage)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Command {
	case CmdMigrate:
		if c.Down < 0 {
			return errors.New("-down must not be negative")
		}
	case CmdToken:
		if c.Subject == "" {
			return errors.New("-subject is required")
		}
	case CmdGrant:
		if c.UserID == "" || c.Delta == 0 {
			return errors.New("-user and a non-zero -delta are required")
		}
	case CmdReconcile:
		if c.GuildID == "" {
			return errors.New("-guild is required")
		}
	}
	return nil
}

// Balances applies operator balance changes.
type Balances interface {
	AddBalance(ctx context.Context, userID string, delta int64) (int64, error)
}

// Reconciler audits a guild.
type Reconciler interface {
	Reconcile(ctx context.Context, guildID string) (*ledger.ReconcileReport, error)
}

// Deps are the collaborators a command may need. Only those the command
// uses must be set.
type Deps struct {
	Migrate    func(down int) error
	Tokens     *auth.JWTManager
	Balances   Balances
	Reconciler Reconciler
}

// ErrReconcileMismatch is returned after printing a report that failed.
var ErrReconcileMismatch = errors.New("reconcile found mismatches")

// Run executes cfg and writes its result to out.
func Run(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	switch cfg.Command {
	case CmdMigrate:
		return deps.Migrate(cfg.Down)

	case CmdToken:
		var guilds []string
		for _, g := range strings.Split(cfg.Guilds, ",") {
			if g = strings.TrimSpace(g); g != "" {
				guilds = append(guilds, g)
			}
		}
		req := auth.TokenRequest{Realm: auth.Realm(cfg.Realm), Subject: cfg.Subject, Guilds: guilds}
		if req.Realm == auth.RealmAdmin {
			req.Role = cfg.Role
		}
		tok, err := deps.Tokens.GenerateToken(req)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, tok)
		return err

	case CmdGrant:
		bal, err := deps.Balances.AddBalance(ctx, cfg.UserID, cfg.Delta)
		if err != nil {
			return fmt.Errorf("grant: %w", err)
		}
		_, err = fmt.Fprintf(out, "user=%s delta=%d balance=%d\n", cfg.UserID, cfg.Delta, bal)
		return err

	case CmdReconcile:
		report, err := deps.Reconciler.Reconcile(ctx, cfg.GuildID)
		if err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if !report.AllPassed {
			return ErrReconcileMismatch
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", cfg.Command)
}
