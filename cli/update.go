package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DefaultSocketPath is where companiond listens by default.
const DefaultSocketPath = "/run/companiond/unix.socket"

type cmdGlobal struct {
	flagSocket string
}

func (g *cmdGlobal) client() *Client {
	return NewClient(g.flagSocket)
}

// NewCommand returns the companionctl root command.
func NewCommand() *cobra.Command {
	global := &cmdGlobal{}

	cmd := &cobra.Command{}
	cmd.Use = "companionctl"
	cmd.Short = "Control the companion update daemon"
	cmd.PersistentFlags().StringVar(&global.flagSocket, "socket", DefaultSocketPath, "Path to the companiond unix socket")

	// Show.
	showCmd := cmdShow{global: global}
	cmd.AddCommand(showCmd.command())

	// Check.
	checkCmd := cmdCheck{global: global}
	cmd.AddCommand(checkCmd.command())

	// Accept.
	acceptCmd := cmdAccept{global: global}
	cmd.AddCommand(acceptCmd.command())

	// Defer.
	deferCmd := cmdDefer{global: global}
	cmd.AddCommand(deferCmd.command())

	// Cancel.
	cancelCmd := cmdCancel{global: global}
	cmd.AddCommand(cancelCmd.command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

// Show.
type cmdShow struct {
	global *cmdGlobal
}

func (c *cmdShow) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "show"
	cmd.Short = "Show the current update state and configuration"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	return cmd
}

func (c *cmdShow) run(cmd *cobra.Command, _ []string) error {
	resp, err := c.global.client().Query(cmd.Context(), "GET", "/1.0/update", nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(resp.Metadata)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s", data)

	return nil
}

// Check.
type cmdCheck struct {
	global *cmdGlobal
}

func (c *cmdCheck) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "check"
	cmd.Short = "Trigger an immediate update check"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	return cmd
}

func (c *cmdCheck) run(cmd *cobra.Command, _ []string) error {
	resp, err := c.global.client().Query(cmd.Context(), "POST", "/1.0/update/:check", nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(resp.Metadata)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s", data)

	return nil
}

// Accept.
type cmdAccept struct {
	global *cmdGlobal
}

func (c *cmdAccept) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "accept"
	cmd.Short = "Accept the pending update and start the download"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	return cmd
}

func (c *cmdAccept) run(cmd *cobra.Command, _ []string) error {
	_, err := c.global.client().Query(cmd.Context(), "POST", "/1.0/update/:accept", nil)

	return err
}

// Defer.
type cmdDefer struct {
	global *cmdGlobal
}

func (c *cmdDefer) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "defer"
	cmd.Short = "Defer the pending update for the rest of the session"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	return cmd
}

func (c *cmdDefer) run(cmd *cobra.Command, _ []string) error {
	_, err := c.global.client().Query(cmd.Context(), "POST", "/1.0/update/:defer", nil)

	return err
}

// Cancel.
type cmdCancel struct {
	global *cmdGlobal
}

func (c *cmdCancel) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "cancel"
	cmd.Short = "Cancel the in-flight update download"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	return cmd
}

func (c *cmdCancel) run(cmd *cobra.Command, _ []string) error {
	_, err := c.global.client().Query(cmd.Context(), "POST", "/1.0/update/download/:cancel", nil)

	return err
}
