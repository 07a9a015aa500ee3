package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	authdomain "taskaty/backend/internal/domain/auth"
	authusecase "taskaty/backend/internal/usecase/auth"
	userusecase "taskaty/backend/internal/usecase/user"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errUsage = errors.New("usage: usertool <create-admin|set-password|delete-all-users> [flags]")

type userAdmin interface {
	Create(ctx context.Context, input userusecase.CreateInput) (*authdomain.User, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type passwordSetter interface {
	SetPassword(ctx context.Context, email, password string) (*authdomain.User, error)
}

var _ passwordSetter = (*authusecase.Service)(nil)

type services struct {
	users     userAdmin
	passwords passwordSetter
}

func execute(ctx context.Context, args []string, svc services, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "create-admin":
		return createAdmin(ctx, args[1:], svc.users, out)
	case "set-password":
		return setPassword(ctx, args[1:], svc.passwords, out)
	case "delete-all-users":
		return deleteAllUsers(ctx, args[1:], svc.users, out)
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

func createAdmin(ctx context.Context, args []string, users userAdmin, out io.Writer) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "admin email address (required)")
	first := fs.String("first", "Admin", "first name")
	last := fs.String("last", "User", "last name")
	age := fs.Int("age", 0, "age")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("create-admin: -email is required")
	}

	pw, err := promptNewPassword(out)
	if err != nil {
		return fmt.Errorf("create-admin: %w", err)
	}

	user, err := users.Create(ctx, userusecase.CreateInput{
		FirstName: *first,
		LastName:  *last,
		Age:       *age,
		Email:     *email,
		Password:  pw,
		Role:      string(authdomain.RoleAdmin),
	})
	if err != nil {
		return fmt.Errorf("create-admin: %w", err)
	}
	fmt.Fprintf(out, "Created admin %s (%s)\n", user.Email, user.ID)
	return nil
}

func setPassword(ctx context.Context, args []string, passwords passwordSetter, out io.Writer) error {
	fs := flag.NewFlagSet("set-password", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "account email address (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("set-password: -email is required")
	}

	pw, err := promptNewPassword(out)
	if err != nil {
		return fmt.Errorf("set-password: %w", err)
	}

	user, err := passwords.SetPassword(ctx, *email, pw)
	if err != nil {
		return fmt.Errorf("set-password: %w", err)
	}
	fmt.Fprintf(out, "Password updated for %s (%s)\n", user.Email, user.ID)
	return nil
}

func deleteAllUsers(ctx context.Context, args []string, users userAdmin, out io.Writer) error {
	fs := flag.NewFlagSet("delete-all-users", flag.ContinueOnError)
	fs.SetOutput(out)
	yes := fs.Bool("yes", false, "confirm deleting every user and their projects")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("delete-all-users: refusing to run without -yes")
	}

	n, err := users.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("delete-all-users: %w", err)
	}
	fmt.Fprintf(out, "Deleted %d users\n", n)
	return nil
}

func promptNewPassword(out io.Writer) (string, error) {
	pw, err := promptPassword(out, "Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := promptPassword(out, "Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

func promptPassword(out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
