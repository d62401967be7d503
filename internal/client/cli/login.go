package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
)

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	passwordFile := fs.String("password-file", "", "file containing the password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.io.Println("=== Login ===")
	c.io.Println()

	emailValue, err := c.readValue(*email, "Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.readPassword(*passwordFile, "Password: ")
	if err != nil {
		return err
	}

	user, err := c.manager.Login(ctx, emailValue, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Signed in as %s\n", displayName(user.Name, user.Email))

	return nil
}

// runToken принимает токен из OAuth редиректа (#token=...)
func (c *Cli) runToken(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: babysteps token <token>")
	}

	user, err := c.manager.AdoptToken(ctx, args[0])
	if err != nil {
		return err
	}

	c.io.Println("✓ Session saved!")
	c.io.Printf("Signed in as %s via %s\n", displayName(user.Name, user.Email), user.LoginMethod)

	return nil
}

func displayName(name, email string) string {
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	case email != "":
		return email
	default:
		return "(no name)"
	}
}
