package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/tui"
	"github.com/tessro/cadence/internal/wizard"
)

var (
	uiFlags   sessionFlags
	uiTheme   string
	uiNoMouse bool
)

var uiCmd = &cobra.Command{
	Use:     "ui [file|dir|url...]",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive player",
	Long: `Launch the full-screen player with synchronized lyrics.

Drag the progress bar with the mouse to seek, or use the arrow keys.
Press ? for all key bindings.

Examples:
  cadence ui
  cadence ui ~/Music/album --repeat all
  cadence ui --search --theme latte`,
	RunE: runUI,
}

func init() {
	uiFlags.register(uiCmd)
	uiCmd.Flags().StringVar(&uiTheme, "theme", "", "color theme: auto, latte, frappe, macchiato, mocha")
	uiCmd.Flags().BoolVar(&uiNoMouse, "no-mouse", false, "disable mouse input")
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	if !wizard.IsTerminal() {
		return errors.ErrNoTerminal
	}

	tracks, err := loadTracks(args, uiFlags.filter)
	if err != nil {
		return err
	}
	start, err := chooseStart(args, tracks, uiFlags.search)
	if err != nil {
		return err
	}

	presenter := tui.NewPresenter()
	sess, store, closer, err := buildSession(presenter, uiFlags)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		err := sess.Run(ctx)
		cancel()
		errCh <- err
	}()
	sess.Play(tracks, start)

	theme := uiTheme
	if theme == "" {
		theme = cfg.TUI.Theme
	}
	opts := tui.Options{
		Theme: theme,
		Mouse: cfg.TUI.MouseEnabled() && !uiNoMouse,
	}
	if store != nil {
		opts.History = store
	}

	uiErr := tui.Run(ctx, sess.Engine(), sess, presenter, opts)

	cancel()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return uiErr
}
