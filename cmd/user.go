package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vibast-solutions/ms-go-journal/app/entity"
	"github.com/vibast-solutions/ms-go-journal/app/mailer"
	"github.com/vibast-solutions/ms-go-journal/app/repository"
	"github.com/vibast-solutions/ms-go-journal/app/service"
	"github.com/vibast-solutions/ms-go-journal/app/validation"
	"github.com/vibast-solutions/ms-go-journal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword and isTerminal are seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type accountManager interface {
	Signup(ctx context.Context, email, password string) (*entity.User, error)
	DeleteAccount(ctx context.Context, email string) error
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create an account, prompting for the password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := newAccountManager(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		return createUser(cmd.Context(), svc, args[0], os.Stdin, cmd.OutOrStdout())
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete an account together with its entries and sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := newAccountManager(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		return deleteUser(cmd.Context(), svc, args[0], cmd.OutOrStdout())
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

func newAccountManager(ctx context.Context) (accountManager, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	db, err := openDatabase(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}

	svc := service.NewUserAuthService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		&mailer.LogMailer{},
		cfg,
	)
	return svc, func() { _ = db.Close() }, nil
}

func createUser(ctx context.Context, svc accountManager, email string, in *os.File, out io.Writer) error {
	email = strings.TrimSpace(email)
	if err := validation.Var(email, "required,email,max=255"); err != nil {
		return fmt.Errorf("invalid email %q", email)
	}

	reader := bufio.NewReader(in)
	password, err := promptPassword(in, reader, out, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(in, reader, out, "Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	user, err := svc.Signup(ctx, email, password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			return fmt.Errorf("user %q already exists", email)
		}
		return err
	}

	fmt.Fprintf(out, "created user %s (%s)\n", user.Email, user.ID)
	return nil
}

func deleteUser(ctx context.Context, svc accountManager, email string, out io.Writer) error {
	email = strings.TrimSpace(email)
	if err := svc.DeleteAccount(ctx, email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", email)
		}
		return err
	}

	fmt.Fprintf(out, "deleted user %s\n", email)
	return nil
}

// promptPassword reads without echo from a terminal and falls back to a
// plain line read when input is piped.
func promptPassword(in *os.File, piped *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	fd := int(in.Fd())
	if isTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := piped.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
