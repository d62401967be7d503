package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/babysteps/internal/client/api"
	"github.com/iudanet/babysteps/internal/client/auth"
	"github.com/iudanet/babysteps/internal/client/iocli"
)

// PasswordEnv позволяет передать пароль без интерактивного ввода
const PasswordEnv = "BABYSTEPS_PASSWORD"

// ErrNotAuthenticated возвращается командами, которым нужна сессия
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'babysteps login' first")

// ErrUnknownCommand означает, что команда не распознана
var ErrUnknownCommand = errors.New("unknown command")

type Cli struct {
	io        iocli.IO
	manager   *auth.Manager
	apiClient *api.Client
	getenv    func(string) string
}

func New(io iocli.IO, manager *auth.Manager, apiClient *api.Client) *Cli {
	return &Cli{
		io:        io,
		manager:   manager,
		apiClient: apiClient,
		getenv:    os.Getenv,
	}
}

// Run executes one command: args[0] is the command name.
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.PrintUsage()
		return ErrUnknownCommand
	}

	command, rest := args[0], args[1:]
	switch command {
	case "register":
		return c.runRegister(ctx, rest)
	case "login":
		return c.runLogin(ctx, rest)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "token":
		return c.runToken(ctx, rest)
	case "children":
		return c.runChildren(ctx, rest)
	case "help":
		c.PrintUsage()
		return nil
	default:
		c.PrintUsage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

// requireSession сверяет сессию с сервером и возвращает пользователя
func (c *Cli) requireSession(ctx context.Context) (auth.State, error) {
	state := c.manager.Reconcile(ctx)
	if state.Status != auth.StatusAuthenticated {
		return state, ErrNotAuthenticated
	}
	return state, nil
}

// readPassword reads a password with priority:
// 1. Environment variable BABYSTEPS_PASSWORD
// 2. File given by -password-file
// 3. Interactive prompt (fallback)
func (c *Cli) readPassword(fromFile, prompt string) (string, error) {
	if envPassword := c.getenv(PasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	if fromFile != "" {
		content, err := os.ReadFile(fromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// readValue возвращает значение флага или спрашивает его интерактивно
func (c *Cli) readValue(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return c.io.ReadInput(prompt)
}

func (c *Cli) PrintUsage() {
	c.io.Println("BabySteps Client")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  babysteps [OPTIONS] COMMAND")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  -version             Show version information")
	c.io.Println("  -server URL          Server URL (default: http://localhost:8080)")
	c.io.Println("  -db PATH             Path to local session cache (default: babysteps-client.db)")
	c.io.Println("  -platform MODE       native (bearer token + cache) or web (cookie, this process only)")
	c.io.Println("  -log-level LEVEL     debug, info, warn, error")
	c.io.Println()
	c.io.Println("Password Priority (highest to lowest):")
	c.io.Println("  1. BABYSTEPS_PASSWORD environment variable")
	c.io.Println("  2. -password-file (file path)")
	c.io.Println("  3. Interactive prompt (fallback)")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  register [-email E] [-name N] [-password-file F]   Create an account")
	c.io.Println("  login [-email E] [-password-file F]                Sign in with email and password")
	c.io.Println("  token <token>                                      Use a token from the OAuth redirect")
	c.io.Println("  logout                                             Sign out and delete the local session")
	c.io.Println("  status                                             Verify the session with the server")
	c.io.Println("  whoami                                             Show the signed in user")
	c.io.Println("  children list                                      List your children")
	c.io.Println("  children add [-name N] [-birth-date YYYY-MM-DD] [-gender G] [-notes T]")
	c.io.Println()
	c.io.Println("Examples:")
	c.io.Println("  babysteps register -email mom@example.com -name Mom")
	c.io.Println("  BABYSTEPS_PASSWORD=secret1 babysteps login -email mom@example.com")
	c.io.Println("  babysteps children add -name Ann -birth-date 2024-03-01")
	c.io.Println("  babysteps -server https://api.example.com status")
}
