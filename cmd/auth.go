package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safeserve/safeserve-go/pkg/client"
)

var (
	regUsername string
	regEmail    string
	regPassword string
	regRole     string

	loginUsername string
	loginPassword string
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a SafeServe account",
	Long: `Create a customer or restaurant owner account.

Examples:
  safeserve register --username alice --email alice@example.com --password secret
  safeserve register --username olga --email olga@example.com --role owner`,
	Args: cobra.NoArgs,
	RunE: withApp(runRegister),
}

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the credential pair",
	Long: `Log in with username and password. The issued access and refresh
credentials are saved to the configured credential store.

The password is read from standard input when --password is omitted.`,
	Args: cobra.NoArgs,
	RunE: withApp(runLogin),
}

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	Args:  cobra.NoArgs,
	RunE:  withApp(runLogout),
}

var WhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in account",
	Args:  cobra.NoArgs,
	RunE:  withApp(runWhoami),
}

func init() {
	RegisterCmd.Flags().StringVarP(&regUsername, "username", "u", "", "Username (required)")
	RegisterCmd.Flags().StringVar(&regEmail, "email", "", "Email address (required)")
	RegisterCmd.Flags().StringVarP(&regPassword, "password", "p", "", "Password, read from stdin when omitted")
	RegisterCmd.Flags().StringVar(&regRole, "role", string(client.RoleCustomer), "Account role: customer or owner")
	if err := RegisterCmd.MarkFlagRequired("username"); err != nil {
		panic(err)
	}

	LoginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (required)")
	LoginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password, read from stdin when omitted")
	if err := LoginCmd.MarkFlagRequired("username"); err != nil {
		panic(err)
	}
}

func runRegister(cmd *cobra.Command, args []string, a *app) error {
	password, err := passwordOrPrompt(cmd, regPassword)
	if err != nil {
		return err
	}

	user, err := a.client.Register(cmd.Context(), client.RegisterRequest{
		Username: regUsername,
		Email:    regEmail,
		Password: password,
		Role:     client.Role(regRole),
	})
	if err != nil {
		return err
	}
	a.logger.Info("account registered",
		slog.String("username", user.Username), slog.String("email", user.Email))

	return a.render(user, func(w io.Writer) {
		fmt.Fprintf(w, "Registered %s as %s\n", user.Username, user.Role)
	})
}

func runLogin(cmd *cobra.Command, args []string, a *app) error {
	password, err := passwordOrPrompt(cmd, loginPassword)
	if err != nil {
		return err
	}

	if _, err := a.client.Login(cmd.Context(), loginUsername, password); err != nil {
		return err
	}

	result := map[string]string{"username": loginUsername, "status": "logged_in"}
	return a.render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Logged in as %s\n", loginUsername)
	})
}

func runLogout(cmd *cobra.Command, args []string, a *app) error {
	if err := a.client.Logout(cmd.Context()); err != nil {
		return err
	}
	return a.render(map[string]string{"status": "logged_out"}, func(w io.Writer) {
		fmt.Fprintln(w, "Logged out")
	})
}

func runWhoami(cmd *cobra.Command, args []string, a *app) error {
	user, err := a.client.Me(cmd.Context())
	if err != nil {
		return err
	}

	return a.render(user, func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", user.ID)
		fmt.Fprintf(w, "Username:\t%s\n", user.Username)
		fmt.Fprintf(w, "Email:\t%s\n", user.Email)
		fmt.Fprintf(w, "Role:\t%s\n", user.Role)
		fmt.Fprintf(w, "Restrictions:\t%s\n", strings.Join(user.Restrictions(), ", "))
	})
}

// passwordOrPrompt returns flagValue, or reads one line from stdin when it is empty
func passwordOrPrompt(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return "", nil
}
