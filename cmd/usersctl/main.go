package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gridlab/board-agent/internal/users"
)

var configPath string

func newStore() *users.Store {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return users.NewStore(configPath, logger)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all lecturer and board accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newStore().Load()
			if err != nil {
				return err
			}

			printTable := func(title string, table map[string]users.User) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", title)
				names := make([]string, 0, len(table))
				for username := range table {
					names = append(names, username)
				}
				sort.Strings(names)
				for _, username := range names {
					u := table[username]
					fmt.Fprintf(cmd.OutOrStdout(), "  %-16s name=%q group=%s\n", username, u.Name, u.Group)
				}
			}

			printTable("Lecturers", cfg.Lecturers)
			printTable("Boards", cfg.Boards)
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	var name, group string

	cmd := &cobra.Command{
		Use:   "add <lecturer|board> <username> <password>",
		Short: "Add a lecturer or board account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := users.Kind(args[0])
			if kind != users.KindLecturer && kind != users.KindBoard {
				return fmt.Errorf("unknown account kind %q, want lecturer or board", args[0])
			}
			return newStore().Add(kind, args[1], args[2], name, group)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the username)")
	cmd.Flags().StringVar(&group, "group", "", "game group (defaults to group1)")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <username>",
		Short: "Remove an account from either table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newStore().Remove(args[0])
		},
	}
}

func newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <username> <password>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newStore().SetPassword(args[0], args[1])
		},
	}
}

func newCreateSampleCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "create-sample",
		Short: "Write a sample account file with demo lecturers and boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newStore().CreateSample(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing account file")
	return cmd
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "usersctl",
		Short:         "Manage the CoreAPI lecturer and board account file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/users.toml", "path to the account file")

	rootCmd.AddCommand(
		newListCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newPasswdCmd(),
		newCreateSampleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
