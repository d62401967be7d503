package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
)

func (c *Cli) runRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	passwordFile := fs.String("password-file", "", "file containing the password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.io.Println("=== Registration ===")
	c.io.Println()

	emailValue, err := c.readValue(*email, "Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.readPassword(*passwordFile, "Password (min 6 chars): ")
	if err != nil {
		return err
	}

	// Подтверждение нужно только при ручном вводе
	if *passwordFile == "" && c.getenv(PasswordEnv) == "" {
		confirm, err := c.io.ReadPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	user, err := c.manager.Register(ctx, emailValue, password, *name)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %d\n", user.ID)
	c.io.Printf("Email: %s\n", user.Email)
	c.io.Println("You are now signed in.")

	return nil
}
