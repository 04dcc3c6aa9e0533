package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"avencia-pm/internal/app"
	"avencia-pm/internal/domain"
)

type userRow struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Email      string     `json:"email" yaml:"email"`
	Role       string     `json:"role" yaml:"role"`
	Department string     `json:"department,omitempty" yaml:"department,omitempty"`
	Title      string     `json:"title,omitempty" yaml:"title,omitempty"`
	Status     string     `json:"status" yaml:"status"`
	IsActive   bool       `json:"is_active" yaml:"is_active"`
	LastLogin  *time.Time `json:"last_login,omitempty" yaml:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
}

func userToRow(u domain.User) userRow {
	return userRow{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		Department: deref(u.Department),
		Title:      deref(u.Title),
		Status:     string(u.Status),
		IsActive:   u.IsActive,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
	}
}

var userTable = table[userRow]{
	headers: []string{"ID", "NAME", "EMAIL", "ROLE", "DEPARTMENT", "ACTIVE"},
	cells: func(r userRow) []string {
		return []string{r.ID, r.Name, r.Email, r.Role, r.Department, strconv.FormatBool(r.IsActive)}
	},
}

func newUsersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUsersListCmd(opts))
	cmd.AddCommand(newUsersCreateCmd(opts))
	return cmd
}

func newUsersListCmd(opts *rootOptions) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := lf.listFilter(domain.UserFilterKinds)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				page, err := a.Services.User.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printPage(cmd.OutOrStdout(), opts.output, page, userToRow, userTable)
			})
		},
	}
	lf.register(cmd.Flags())
	return cmd
}

func newUsersCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		req      domain.CreateUserRequest
		role     string
		dept     string
		title    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long:  "Create a user account. The password is prompted for when --password is not given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				p, err := promptPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			req.Password = password
			req.Role = domain.UserRole(role)
			if dept != "" {
				req.Department = &dept
			}
			if title != "" {
				req.Title = &title
			}

			return withApp(cmd, opts, func(a *app.App) error {
				u, err := a.Services.User.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				r := userToRow(*u)
				return printValue(cmd.OutOrStdout(), opts.output, r, [][2]string{
					{"ID", r.ID},
					{"Name", r.Name},
					{"Email", r.Email},
					{"Role", r.Role},
				})
			})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "Role (admin, manager, member)")
	cmd.Flags().StringVar(&dept, "department", "", "Department")
	cmd.Flags().StringVar(&title, "title", "", "Job title")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// promptPassword reads a password twice from the terminal without echo.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprint(errOut, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(errOut)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(errOut, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(errOut)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
