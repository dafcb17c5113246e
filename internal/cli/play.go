package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tessro/cadence/internal/tail"
	"github.com/tessro/cadence/internal/wizard"
)

var (
	playFlags     sessionFlags
	playNoConsole bool
)

var playCmd = &cobra.Command{
	Use:   "play [file|dir|url...]",
	Short: "Play tracks headless and print playback events",
	Long: `Play files, directories or stream URLs and print playback events as they
happen. Without arguments, the configured library directory is queued.

When attached to a terminal a console accepts commands such as pause,
seek 1:30, vol 60 and next. Type help for the full list.

Examples:
  cadence play ~/Music/album
  cadence play song.flac --timestamp
  cadence play --filter "radiohead" --repeat all
  cadence play --format '{{.Emoji}} {{.Title}} {{.Line}}'`,
	RunE: runPlay,
}

func init() {
	playFlags.register(playCmd)
	addTailFlags(playCmd)
	playCmd.Flags().BoolVar(&playNoConsole, "no-console", false, "do not read commands from stdin")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	formatter, err := newTailFormatter()
	if err != nil {
		return err
	}

	tracks, err := loadTracks(args, playFlags.filter)
	if err != nil {
		return err
	}
	start, err := chooseStart(args, tracks, playFlags.search)
	if err != nil {
		return err
	}

	presenter := tail.NewPresenter(256)
	sess, _, closer, err := buildSession(presenter, playFlags)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A session that fails to start also ends the console.
	errCh := make(chan error, 1)
	go func() {
		err := sess.Run(ctx)
		cancel()
		errCh <- err
	}()
	go printEvents(ctx, presenter, formatter, os.Stdout)

	sess.Play(tracks, start)

	var consoleErr error
	if playNoConsole || !wizard.IsTerminal() {
		<-ctx.Done()
	} else {
		consoleErr = newConsole(sess, os.Stdout).run(ctx)
	}

	cancel()
	if err := <-errCh; err != nil {
		return err
	}
	return consoleErr
}
