package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kug0115-cpu/kookmath/internal/app"
	"github.com/kug0115-cpu/kookmath/internal/platform/config"
	"github.com/kug0115-cpu/kookmath/internal/platform/logging"
)

// cli carries state shared by every subcommand of one invocation.
type cli struct {
	out     io.Writer
	errOut  io.Writer
	cfgFile string
	app     *app.App
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "kookmath",
		Short:         "Manage the math problem video catalog",
		Long:          "kookmath edits the grade, book, chapter and video catalog behind the shelf site.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default ./kookmath.yaml)")

	root.AddCommand(
		c.gradeCmd(),
		c.bookCmd(),
		c.chapterCmd(),
		c.videoCmd(),
		c.linkCmd(),
		c.resolveCmd(),
		c.showCmd(),
		c.seedCmd(),
		c.exportCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(c.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	slog.SetDefault(logging.New(c.errOut, cfg.Log.Level, cfg.Log.Format))

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func intArg(args []string, i int, name string) (int, error) {
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, args[i])
	}
	return n, nil
}
