package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mentapp/mentapp-go/internal/auth"
	"github.com/mentapp/mentapp-go/internal/client"
	"github.com/mentapp/mentapp-go/internal/session"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage authentication for the MentApp CLI`,
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthRegisterCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthDeleteAccountCommand())

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var (
		localID  string
		password string
		google   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the MentApp backend",
		Long: `Authenticate with local credentials or via Google OAuth.

With --google, the CLI prints an authorization URL to open in a browser;
paste the full redirect URL back when Google sends you there.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			if google {
				return googleLogin(cmd, ctx)
			}

			if localID == "" {
				localID, err = promptLine("Email (local ID): ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				password, err = promptPassword("Password: ")
				if err != nil {
					return err
				}
			}

			resp, err := ctx.Client.Login(cmd.Context(), localID, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			username := resp.Username
			if username == "" {
				username = localID
			}
			fmt.Printf("Logged in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&localID, "local-id", "", "Email address (local ID)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&google, "google", false, "Login with Google OAuth")

	return cmd
}

// googleLogin walks the OAuth code flow by hand: print the authorize URL,
// let the user paste back the redirect URL, validate the CSRF state, and
// exchange the code through the backend.
func googleLogin(cmd *cobra.Command, ctx *CliContext) error {
	state, err := auth.NewState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	googleCfg := auth.GoogleConfig{
		ClientID:    ctx.Context.Google.ClientID,
		RedirectURI: ctx.Context.Google.RedirectURI,
	}
	authorizeURL, err := auth.AuthorizeURL(googleCfg, state)
	if err != nil {
		return err
	}

	store := ctx.Client.Session()
	if err := store.SetOAuthState(state, googleCfg.RedirectURI); err != nil {
		return err
	}
	// Whatever happens below, the one-shot state must not linger.
	defer func() {
		if err := store.ClearOAuthState(); err != nil {
			ctx.Logger.Warn("failed to clear oauth state", "error", err)
		}
	}()

	fmt.Println("Open this URL in a browser:")
	fmt.Println()
	fmt.Println("  " + authorizeURL)
	fmt.Println()

	pasted, err := promptLine("Paste the redirect URL here: ")
	if err != nil {
		return err
	}

	code, receivedState, err := parseOAuthRedirect(pasted)
	if err != nil {
		return err
	}
	if err := auth.ValidateState(store.OAuthState(), receivedState); err != nil {
		return err
	}

	resp, err := ctx.Client.ExchangeOAuthCode(cmd.Context(), "google", code)
	if err != nil {
		return fmt.Errorf("google login failed: %w", err)
	}

	fmt.Printf("Logged in as %s\n", resp.Email)
	return nil
}

// parseOAuthRedirect pulls code and state out of a pasted redirect URL.
// The full URL is required: without the state parameter the CSRF check
// cannot run.
func parseOAuthRedirect(pasted string) (code, state string, err error) {
	pasted = strings.TrimSpace(pasted)
	if !strings.Contains(pasted, "://") {
		return "", "", fmt.Errorf("paste the full redirect URL, including the state parameter")
	}

	u, err := url.Parse(pasted)
	if err != nil {
		return "", "", fmt.Errorf("could not parse redirect URL: %w", err)
	}

	q := u.Query()
	if errMsg := q.Get("error"); errMsg != "" {
		return "", "", fmt.Errorf("authorization was denied: %s", errMsg)
	}
	code = q.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("redirect URL carries no authorization code")
	}
	return code, q.Get("state"), nil
}

func newAuthRegisterCommand() *cobra.Command {
	var (
		localID  string
		nickname string
		email    string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a local account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			if localID == "" {
				localID, err = promptLine("Email (local ID): ")
				if err != nil {
					return err
				}
			}
			if nickname == "" {
				nickname, err = promptLine("Nickname: ")
				if err != nil {
					return err
				}
			}
			if email == "" {
				email = localID
			}

			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			_, err = ctx.Client.Register(cmd.Context(), client.RegisterRequest{
				LocalID:  localID,
				Password: password,
				Nickname: nickname,
				Email:    email,
			})
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			fmt.Printf("Account created, logged in as %s\n", nickname)
			return nil
		},
	}

	cmd.Flags().StringVar(&localID, "local-id", "", "Email address (local ID)")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Display nickname")
	cmd.Flags().StringVar(&email, "email", "", "Contact email (defaults to local ID)")

	return cmd
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and discard stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			// Recover an access token first so the backend call is
			// authenticated; tolerate failure since local state is
			// cleared either way.
			if _, err := ctx.Client.InitFromRefresh(cmd.Context()); err != nil {
				ctx.Logger.Debug("session recovery before logout failed", "error", err)
			}

			if err := ctx.Client.Logout(cmd.Context()); err != nil {
				ctx.Logger.Warn("backend logout failed, local credentials cleared anyway", "error", err)
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			store := ctx.Client.Session()
			if !store.IsAuthed() {
				fmt.Println("Not logged in")
				return nil
			}

			if _, err := ctx.Client.InitFromRefresh(cmd.Context()); err != nil {
				return err
			}
			if !store.IsAuthed() {
				fmt.Println("Session expired, please login again")
				return nil
			}

			if profile := store.Profile(); profile != nil {
				fmt.Printf("Logged in as %s (%s)\n", profile.Username, profile.LocalID)
			} else {
				fmt.Println("Logged in")
			}

			if token := store.AccessToken(); token != "" {
				if expiry, err := session.TokenExpiry(token); err == nil {
					fmt.Printf("Access token expires in %s\n", time.Until(expiry).Round(time.Second))
				}
				if store.IsAdmin() {
					fmt.Println("Role: admin (display only, enforced server-side)")
				}
			}
			return nil
		},
	}
}

func newAuthDeleteAccountCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Permanently delete the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			if !yes {
				answer, err := promptLine("This permanently deletes your account. Type 'delete' to confirm: ")
				if err != nil {
					return err
				}
				if answer != "delete" {
					fmt.Println("Aborted")
					return nil
				}
			}

			if ok, err := ctx.Client.InitFromRefresh(cmd.Context()); err != nil {
				return err
			} else if !ok {
				return fmt.Errorf("not logged in")
			}

			if err := ctx.Client.DeleteAccount(cmd.Context()); err != nil {
				return fmt.Errorf("account deletion failed: %w", err)
			}
			fmt.Println("Account deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

// promptLine reads one line from stdin.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echoing it.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}
