package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-login-servers/internal/domain"
)

// listing is the JSON shape of list and reset output
type listing struct {
	LoginServers []domain.LoginServer `json:"login_servers"`
	Selected     domain.LoginServer   `json:"selected"`
}

func printServers(w io.Writer, servers []domain.LoginServer, selected domain.LoginServer) error {
	if output == "json" {
		return printJSON(w, listing{LoginServers: servers, Selected: selected})
	}

	headers := []string{"", "NAME", "URL", "CUSTOM"}
	rows := make([][]string, len(servers))
	marked := false
	for i, s := range servers {
		mark := ""
		if !marked && s == selected {
			mark = "*"
			marked = true
		}
		custom := "no"
		if s.IsCustom {
			custom = "yes"
		}
		rows[i] = []string{mark, s.Name, s.URL, custom}
	}
	printTable(w, headers, rows)
	return nil
}

func printServer(w io.Writer, s domain.LoginServer) error {
	if output == "json" {
		return printJSON(w, s)
	}
	_, err := fmt.Fprintln(w, s.String())
	return err
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all login servers",
	Long:  `List the built-in login servers followed by custom ones. The selected server is marked with *.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			return printServers(cmd.OutOrStdout(), a.manager.LoginServers(), a.manager.SelectedLoginServer())
		})
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [url]",
	Short: "Find a login server by URL",
	Long:  `Find the first login server whose URL matches exactly. No normalization is applied.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			server, ok := a.manager.LoginServerFromURL(args[0])
			if !ok {
				return fmt.Errorf("no login server with url %s", args[0])
			}
			return printServer(cmd.OutOrStdout(), server)
		})
	},
}

var selectedCmd = &cobra.Command{
	Use:   "selected",
	Short: "Show the selected login server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			return printServer(cmd.OutOrStdout(), a.manager.SelectedLoginServer())
		})
	},
}

var selectCmd = &cobra.Command{
	Use:   "select [url]",
	Short: "Select a registered login server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			server, ok := a.manager.LoginServerFromURL(args[0])
			if !ok {
				return fmt.Errorf("no login server with url %s", args[0])
			}
			a.manager.SetSelectedLoginServer(cmd.Context(), server)
			return printServer(cmd.OutOrStdout(), server)
		})
	},
}

var (
	addName string
	addURL  string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a custom login server",
	Long: `Add a custom login server after the existing ones and select it.

The name must not be blank and the URL must be an absolute http or https URL.
Adding a URL that is already registered is allowed; lookups return the first match.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := domain.ValidateLoginServer(addName, addURL); err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			server := a.manager.AddCustomLoginServer(cmd.Context(), addName, addURL)
			return printServer(cmd.OutOrStdout(), server)
		})
	},
}

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Select the sandbox login server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			a.manager.UseSandbox(cmd.Context())
			return printServer(cmd.OutOrStdout(), a.manager.SelectedLoginServer())
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove all custom login servers",
	Long:  `Remove all custom login servers from memory and storage and select the default server again.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			a.manager.Reset(cmd.Context())
			return printServers(cmd.OutOrStdout(), a.manager.LoginServers(), a.manager.SelectedLoginServer())
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(selectedCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(sandboxCmd)
	rootCmd.AddCommand(resetCmd)

	addCmd.Flags().StringVar(&addName, "name", "", "Display name of the login server (required)")
	addCmd.Flags().StringVar(&addURL, "url", "", "Login server URL (required)")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("url")
}
