package cli

import (
	"context"
	"time"

	"github.com/iudanet/babysteps/internal/client/auth"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	// Печатаем каждое состояние: на native первым приходит кешированный пользователь
	unsubscribe := c.manager.Subscribe(func(s auth.State) {
		if s.Stale && s.User != nil {
			c.io.Printf("Cached session: %s (verifying...)\n", displayName(s.User.Name, s.User.Email))
		}
	})
	defer unsubscribe()

	state := c.manager.Reconcile(ctx)
	if state.Status != auth.StatusAuthenticated {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'babysteps login' to authenticate.")
		return nil
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("User: %s\n", displayName(state.User.Name, state.User.Email))
	c.io.Printf("Login method: %s\n", state.User.LoginMethod)

	return nil
}

func (c *Cli) runWhoami(ctx context.Context) error {
	state, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	u := state.User
	c.io.Printf("ID:            %d\n", u.ID)
	c.io.Printf("Open ID:       %s\n", u.OpenID)
	c.io.Printf("Name:          %s\n", u.Name)
	c.io.Printf("Email:         %s\n", u.Email)
	c.io.Printf("Login method:  %s\n", u.LoginMethod)
	if !u.LastSignedIn.IsZero() {
		c.io.Printf("Last signed in: %s\n", u.LastSignedIn.Local().Format(time.RFC3339))
	}

	return nil
}
