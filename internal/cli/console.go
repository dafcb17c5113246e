package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/engine"
	"github.com/tessro/cadence/internal/session"
)

const consoleHelp = `commands:
  pause | resume        pause or resume playback
  seek <time>           jump to a position (90, 1:30, 1:02:03)
  drag                  grab the progress bar
  move <time>           move the grabbed bar
  release | cancel      commit or abandon the drag
  vol <0-100>           set the volume
  next | prev           skip within the queue
  repeat <off|all|one>  set the repeat mode
  status                show the current state
  quit                  stop playback and exit`

// console executes typed playback commands against a session.
type console struct {
	sess *session.Session
	eng  *engine.Engine
	out  io.Writer
}

func newConsole(sess *session.Session, out io.Writer) *console {
	return &console{sess: sess, eng: sess.Engine(), out: out}
}

// completer returns the readline completion tree for the console commands.
func (c *console) completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("pause"),
		readline.PcItem("resume"),
		readline.PcItem("seek"),
		readline.PcItem("drag"),
		readline.PcItem("move"),
		readline.PcItem("release"),
		readline.PcItem("cancel"),
		readline.PcItem("vol"),
		readline.PcItem("next"),
		readline.PcItem("prev"),
		readline.PcItem("repeat",
			readline.PcItem("off"),
			readline.PcItem("all"),
			readline.PcItem("one"),
		),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// run reads commands until quit, EOF, or ctx is cancelled.
func (c *console) run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "♪ ",
		AutoComplete:    c.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}
	defer func() { _ = rl.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = rl.Close() })
	defer stop()

	for {
		line, err := rl.Readline()
		if err != nil {
			// readline.ErrInterrupt, io.EOF, or the console was closed.
			return nil
		}
		quit, err := c.exec(ctx, line)
		if err != nil {
			_, _ = fmt.Fprintln(c.out, "error:", err)
		}
		if quit {
			return nil
		}
	}
}

// exec runs one command line. It reports whether the console should exit.
func (c *console) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		_, _ = fmt.Fprintln(c.out, consoleHelp)
	case "pause", "resume":
		st, err := c.eng.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		if st.State.Paused == (cmd == "resume") {
			c.eng.UserTogglePause()
		}
	case "toggle", "p":
		c.eng.UserTogglePause()
	case "seek":
		secs, err := positionArg(args)
		if err != nil {
			return false, err
		}
		c.eng.UserSeek(secs)
	case "drag":
		c.eng.UserDragStart()
	case "move":
		secs, err := positionArg(args)
		if err != nil {
			return false, err
		}
		c.eng.UserDragMove(secs)
	case "release":
		c.eng.UserDragRelease()
	case "cancel":
		c.eng.UserDragCancel()
	case "vol", "volume":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: vol <0-100>")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid volume %q", args[0])
		}
		c.eng.UserSetVolume(v)
	case "next", "n":
		c.sess.Next()
	case "prev":
		c.sess.Prev()
	case "repeat":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: repeat <off|all|one>")
		}
		mode, err := core.ParseRepeatMode(args[0])
		if err != nil {
			return false, err
		}
		c.sess.SetRepeat(mode)
	case "status", "s":
		return false, c.status(ctx)
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}

func (c *console) status(ctx context.Context) error {
	st, err := c.eng.Snapshot(ctx)
	if err != nil {
		return err
	}
	if JSONOutput() {
		return json.NewEncoder(c.out).Encode(st)
	}
	_, _ = fmt.Fprintln(c.out, formatStatus(st))
	return nil
}

// formatStatus renders a one-line summary of st.
func formatStatus(st engine.Status) string {
	s := st.State
	if !s.HasTrack() {
		return "⏹ nothing playing"
	}
	icon := "▶"
	if s.Paused {
		icon = "⏸"
	}
	pos := s.Position
	if st.Drag == engine.DragDragging {
		pos = st.Shown
	}
	line := fmt.Sprintf("%s %s", icon, s.Track.DisplayTitle())
	if artist := s.Track.Artist(); artist != "" {
		line += " — " + artist
	}
	clock := core.FormatClock(pos)
	if d := s.Duration(); d > 0 {
		clock = FormatProgress(pos, d, 20) + " " + clock + " / " + core.FormatClock(d)
	}
	return fmt.Sprintf("%s  %s  vol %d%%  lyrics %d", line, clock, s.Volume, st.LyricLines)
}

func positionArg(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a position like 90 or 1:30")
	}
	return parseClock(args[0])
}

// parseClock parses seconds given as "90", "1:30", "1:02:03" or "12.5".
func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}
