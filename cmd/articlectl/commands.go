package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"blogposts/app/internal/app/bootstrap"
	"blogposts/app/internal/config"
	applog "blogposts/app/internal/log"
	"blogposts/app/internal/user"
)

// cli carries the state shared by every subcommand once the root pre-run has loaded it.
type cli struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "articlectl",
		Short: "Administrative commands for the articles service",
		Long: `articlectl manages the articles database outside the HTTP API.

It reads the same environment variables and CONFIG_FILE as the server.

Example usage:
  articlectl migrate                                    # Create or update the schema
  articlectl user create --username alice --password s3cret
  articlectl user delete --id 3                         # Also removes the user's articles`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}

	root.AddCommand(c.newMigrateCommand(), c.newUserCommand())
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return eris.Wrap(err, "initialising logger")
	}

	c.cfg = cfg
	c.logger = logger
	return nil
}

func (c *cli) openStore(cmd *cobra.Command) (bootstrap.Store, error) {
	return bootstrap.OpenStore(cmd.Context(), bootstrap.Dependencies{
		Config: *c.cfg,
		Logger: c.logger,
	})
}

func (c *cli) closeStore(store bootstrap.Store) {
	if err := store.Close(); err != nil {
		c.logger.WithError(err).Error("closing database")
	}
}

func (c *cli) newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer c.closeStore(store)

			count, err := store.Articles.Count(cmd.Context())
			if err != nil {
				return eris.Wrap(err, "counting articles after migration")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date, %d articles stored\n", count)
			return nil
		},
	}
}

func (c *cli) newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage article authors",
	}

	userCmd.AddCommand(c.newUserCreateCommand(), c.newUserDeleteCommand())
	return userCmd
}

func (c *cli) newUserCreateCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := user.New(strings.TrimSpace(username), password)
			if err != nil {
				return err
			}

			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer c.closeStore(store)

			if err := store.Users.Create(cmd.Context(), u); err != nil {
				return eris.Wrapf(err, "creating user %q", u.Username)
			}

			fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "unique user name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func (c *cli) newUserDeleteCommand() *cobra.Command {
	var id uint

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user together with their articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return eris.New("--id must be a positive user id")
			}

			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer c.closeStore(store)

			if err := store.Users.Delete(cmd.Context(), id); err != nil {
				if eris.Is(err, user.ErrNotFound) {
					return eris.Errorf("user %d does not exist", id)
				}
				return eris.Wrapf(err, "deleting user %d", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d\n", id)
			return nil
		},
	}

	cmd.Flags().UintVar(&id, "id", 0, "id of the user to delete")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
