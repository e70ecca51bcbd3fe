package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/naveenspark/hackforge/internal/app"
	"github.com/naveenspark/hackforge/internal/session"
	"github.com/naveenspark/hackforge/pkg/client"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// prompter reads missing credentials from the command's stdin.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is set when stdin is a terminal, so secrets are read without echo.
	fd int
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr(), fd: -1}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

func (p *prompter) ask(label string, val *string) error {
	if *val != "" {
		return nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return fmt.Errorf("read %s: %w", label, err)
	}
	*val = strings.TrimRight(line, "\r\n")
	return nil
}

// askSecret is ask without echo on a terminal. Piped input falls back to ask.
func (p *prompter) askSecret(label string, val *string) error {
	if *val != "" || p.fd < 0 {
		return p.ask(label, val)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return fmt.Errorf("read %s: %w", label, err)
	}
	*val = string(b)
	return nil
}

// describe turns a server rejection into one line, listing field errors.
func describe(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return strings.TrimPrefix(verr.Error(), "validation failed: ")
	}
	return client.Message(err)
}

func newLoginCmd(c *cli) *cobra.Command {
	var creds domain.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(cmd)
			if err := p.ask("email", &creds.Email); err != nil {
				return err
			}
			if err := p.askSecret("password", &creds.Password); err != nil {
				return err
			}
			user, err := c.app.Session.Login(cmd.Context(), creds)
			if err != nil {
				return fmt.Errorf("login failed: %s", describe(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", user.Name(), user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(cmd)
			for _, f := range []struct {
				label  string
				val    *string
				secret bool
			}{
				{"first name", &reg.FirstName, false},
				{"last name", &reg.LastName, false},
				{"email", &reg.Email, false},
				{"password", &reg.Password, true},
			} {
				ask := p.ask
				if f.secret {
					ask = p.askSecret
				}
				if err := ask(f.label, f.val); err != nil {
					return err
				}
			}
			user, err := c.app.Session.Register(cmd.Context(), reg)
			if err != nil {
				return fmt.Errorf("register failed: %s", describe(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s. You are signed in.\n", user.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear your session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.app.Session.State().Status() != session.Authenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "Already logged out.")
				return nil
			}
			c.app.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if err := c.app.Verify(cmd.Context()); errors.Is(err, app.ErrSessionExpired) {
				printGreeting(out)
				return err
			} else if err != nil {
				return err
			}
			u := c.app.Session.State().User
			if u == nil {
				printGreeting(out)
				return nil
			}
			return render(out, c.output, u, func(tw *tabwriter.Writer) {
				row(tw, "NAME", u.Name())
				row(tw, "EMAIL", u.Email)
				row(tw, "ROLE", string(u.Role))
				row(tw, "ID", u.ID)
				if u.Avatar != "" {
					row(tw, "AVATAR", u.Avatar)
				}
			})
		},
	}
}

func newAvatarCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <image>",
		Short: "Upload a profile picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck
			link, err := c.app.Session.UploadAvatar(cmd.Context(), filepath.Base(args[0]), f)
			if errors.Is(err, session.ErrNotAuthenticated) {
				return errors.New("not signed in: run hackforge login first")
			}
			if err != nil {
				return fmt.Errorf("upload failed: %s", describe(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
}
