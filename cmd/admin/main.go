// Package main provides group and user administration for inkwell.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"
)

const usage = `Usage:
  go run ./cmd/admin group-create <slug> <title> [description]  - Create a group
  go run ./cmd/admin group-delete <slug>                        - Delete an empty group
  go run ./cmd/admin group-list                                 - List groups
  go run ./cmd/admin user-delete <username>                     - Delete a user who has no posts`

type admin struct {
	groups *service.GroupService
	users  *service.UserService
	out    io.Writer
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	listing := service.NewListingService(repository.NewPostRepository(db), nil)
	a := &admin{
		groups: service.NewGroupService(repository.NewGroupRepository(db), listing),
		users:  service.NewUserService(repository.NewUserRepository(db)),
		out:    os.Stdout,
	}

	if err := a.run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func (a *admin) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "group-create":
		if len(args) < 3 {
			return fmt.Errorf("usage: group-create <slug> <title> [description]")
		}
		in := service.CreateGroupInput{Slug: args[1], Title: args[2]}
		if len(args) > 3 {
			in.Description = args[3]
		}
		group, err := a.groups.Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "✅ Created group %s (ID: %d)\n", group.Slug, group.ID)

	case "group-delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: group-delete <slug>")
		}
		if err := a.groups.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "✅ Deleted group %s\n", args[1])

	case "group-list":
		groups, err := a.groups.List(ctx)
		if err != nil {
			return err
		}
		printGroups(a.out, groups)

	case "user-delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: user-delete <username>")
		}
		if err := a.users.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "✅ Deleted user %s\n", args[1])

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	return nil
}

func printGroups(w io.Writer, groups []models.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No groups found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tTITLE")
	for _, g := range groups {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
	}
	_ = tw.Flush()
}
