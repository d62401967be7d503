package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/iudanet/babysteps/internal/models"
)

func (c *Cli) runChildren(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: babysteps children <list|add>")
	}

	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		return c.listChildren(ctx)
	case "add":
		return c.addChild(ctx, args[1:])
	default:
		return fmt.Errorf("%w: children %s", ErrUnknownCommand, args[0])
	}
}

func (c *Cli) listChildren(ctx context.Context) error {
	children, err := c.apiClient.ListChildren(ctx, c.manager.Token())
	if err != nil {
		return err
	}

	if len(children) == 0 {
		c.io.Println("No children yet. Add one with 'babysteps children add'.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBIRTH DATE\tGENDER")
	for _, ch := range children {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", ch.ID, ch.Name, ch.BirthDate.Format(models.DateLayout), ch.Gender)
	}
	return w.Flush()
}

func (c *Cli) addChild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("children add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "child name")
	birthDate := fs.String("birth-date", "", "birth date, YYYY-MM-DD")
	gender := fs.String("gender", "", "gender")
	notes := fs.String("notes", "", "notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := models.ChildInput{Gender: *gender, Notes: *notes}

	var err error
	if in.Name, err = c.readValue(*name, "Name: "); err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	if in.BirthDate, err = c.readValue(*birthDate, "Birth date (YYYY-MM-DD): "); err != nil {
		return fmt.Errorf("failed to read birth date: %w", err)
	}

	if err := in.Validate(); err != nil {
		return err
	}

	child, err := c.apiClient.CreateChild(ctx, c.manager.Token(), in)
	if err != nil {
		return err
	}

	c.io.Printf("✓ Added %s (ID %d)\n", child.Name, child.ID)
	return nil
}
