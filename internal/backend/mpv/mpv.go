// Package mpv drives an external mpv process over its JSON IPC socket.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
)

const (
	socketCheckRetries  = 20
	socketCheckInterval = 100 * time.Millisecond
	commandQueueSize    = 64

	observeTimePos = 1
	observePause   = 2
	observeVolume  = 3

	requestDuration = 100
)

var observed = map[int]string{
	observeTimePos: "time-pos",
	observePause:   "pause",
	observeVolume:  "volume",
}

// Command is a request written to the mpv socket.
type Command struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

// Message is a reply or event read from the mpv socket.
type Message struct {
	Event     string          `json:"event,omitempty"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Error     string          `json:"error,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
}

// Backend plays tracks through mpv. Requests are queued onto a writer
// goroutine; events are decoded on a reader goroutine and delivered to the
// sink from there.
type Backend struct {
	path   string
	socket string
	spawn  bool
	tick   time.Duration
	log    zerolog.Logger
	now    func() time.Time

	out chan Command

	mu      sync.Mutex
	pending *core.Track
	closed  bool

	// reader goroutine only
	sink     core.EventSink
	loading  *core.Track
	lastTick time.Time
	lastPos  float64

	cmd       *exec.Cmd
	conn      net.Conn
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Backend.
type Option func(*Backend)

// WithBinary sets the mpv executable.
func WithBinary(path string) Option {
	return func(b *Backend) {
		b.path = path
	}
}

// WithSocket sets the IPC socket path.
func WithSocket(path string) Option {
	return func(b *Backend) {
		b.socket = path
	}
}

// WithoutProcess connects to an mpv that is already listening on the socket
// instead of starting one.
func WithoutProcess() Option {
	return func(b *Backend) {
		b.spawn = false
	}
}

// WithTickInterval sets the minimum spacing of position ticks during steady
// playback. Jumps of a second or more are always reported.
func WithTickInterval(d time.Duration) Option {
	return func(b *Backend) {
		b.tick = d
	}
}

// WithLogger sets the backend logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) {
		b.log = l
	}
}

// New creates an mpv backend. Start launches it.
func New(opts ...Option) *Backend {
	b := &Backend{
		path:   "mpv",
		socket: "/tmp/cadence-mpv.sock",
		spawn:  true,
		tick:   250 * time.Millisecond,
		log:    zerolog.Nop(),
		now:    time.Now,
		out:    make(chan Command, commandQueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start implements core.Backend.
func (b *Backend) Start(ctx context.Context, sink core.EventSink) error {
	if b.isClosed() {
		return errors.ErrBackendClosed
	}
	if b.spawn {
		if err := b.startProcess(); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrBackendUnavailable, err)
		}
	}

	conn, err := b.dial(ctx)
	if err != nil {
		b.killProcess()
		return fmt.Errorf("%w: %v", errors.ErrBackendUnavailable, err)
	}

	b.sink = sink
	b.conn = conn
	ctx, b.cancel = context.WithCancel(ctx)

	for id, name := range observed {
		b.send(Command{Command: []any{"observe_property", id, name}})
	}

	go b.writeLoop(ctx, conn)
	go b.readLoop(conn)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	return nil
}

func (b *Backend) startProcess() error {
	_ = os.Remove(b.socket)

	args := []string{
		"--idle",
		"--input-ipc-server=" + b.socket,
		"--no-video",
		"--no-config",
		"--no-terminal",
	}
	b.log.Info().Str("binary", b.path).Str("socket", b.socket).Msg("starting mpv")

	b.cmd = exec.Command(b.path, args...)
	b.cmd.Stdout = b.log
	b.cmd.Stderr = b.log
	if err := b.cmd.Start(); err != nil {
		b.cmd = nil
		return fmt.Errorf("could not start mpv process: %w", err)
	}
	return nil
}

func (b *Backend) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	var lastErr error
	for range socketCheckRetries {
		conn, err := d.DialContext(ctx, "unix", b.socket)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(socketCheckInterval):
		}
	}
	return nil, fmt.Errorf("mpv socket did not appear at %s: %w", b.socket, lastErr)
}

func (b *Backend) writeLoop(ctx context.Context, conn net.Conn) {
	enc := json.NewEncoder(conn)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-b.out:
			if err := enc.Encode(c); err != nil {
				b.log.Error().Err(err).Msg("error sending mpv command")
				return
			}
		}
	}
}

func (b *Backend) readLoop(conn net.Conn) {
	defer close(b.done)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var msg Message
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			b.log.Warn().Str("line", sc.Text()).Err(err).Msg("could not parse line from mpv")
			continue
		}
		b.handle(msg)
	}
	if err := sc.Err(); err != nil {
		b.log.Debug().Err(err).Msg("mpv connection closed")
	}
}

func (b *Backend) handle(msg Message) {
	switch msg.Event {
	case "property-change":
		b.handleProperty(msg)

	case "file-loaded":
		b.mu.Lock()
		t := b.pending
		b.pending = nil
		b.mu.Unlock()
		if t == nil {
			return
		}
		if t.Duration > 0 {
			b.trackLoaded(*t)
			return
		}
		b.loading = t
		b.send(Command{Command: []any{"get_property", "duration"}, RequestID: requestDuration})

	case "end-file":
		if msg.Reason == "eof" {
			b.sink.OnTrackEnded()
		}

	case "":
		if msg.RequestID == requestDuration && b.loading != nil {
			t := *b.loading
			b.loading = nil
			var secs float64
			if msg.Error == "success" {
				if err := json.Unmarshal(msg.Data, &secs); err != nil {
					b.log.Debug().Err(err).Str("data", string(msg.Data)).Msg("could not decode mpv duration")
				}
			}
			b.trackLoaded(t.WithDuration(time.Duration(secs * float64(time.Second))))
			return
		}
		if msg.Error != "" && msg.Error != "success" {
			b.log.Debug().Str("error", msg.Error).Int("request", msg.RequestID).Msg("mpv command failed")
		}
	}
}

func (b *Backend) handleProperty(msg Message) {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return
	}

	switch msg.Name {
	case "time-pos":
		var pos float64
		if err := json.Unmarshal(msg.Data, &pos); err != nil {
			return
		}
		now := b.now()
		if !b.lastTick.IsZero() && now.Sub(b.lastTick) < b.tick && math.Abs(pos-b.lastPos) < 1 {
			return
		}
		b.lastTick, b.lastPos = now, pos
		b.sink.OnPositionTick(pos)

	case "pause":
		var paused bool
		if err := json.Unmarshal(msg.Data, &paused); err == nil {
			b.sink.OnPausedChanged(paused)
		}

	case "volume":
		var vol float64
		if err := json.Unmarshal(msg.Data, &vol); err == nil {
			b.sink.OnVolumeChanged(int(math.Round(vol)))
		}
	}
}

func (b *Backend) trackLoaded(t core.Track) {
	b.lastTick = time.Time{}
	b.log.Debug().Str("track", t.ID).Dur("duration", t.Duration).Msg("mpv loaded track")
	b.sink.OnTrackChanged(t)
}

func (b *Backend) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) send(c Command) {
	if b.isClosed() {
		b.log.Debug().Err(errors.ErrBackendClosed).Interface("command", c.Command).Msg("dropping mpv command")
		return
	}
	select {
	case b.out <- c:
	default:
		b.log.Warn().Interface("command", c.Command).Msg("mpv command queue full, dropping")
	}
}

// RequestPlay implements core.Backend.
func (b *Backend) RequestPlay(track core.Track) {
	b.mu.Lock()
	b.pending = &track
	b.mu.Unlock()
	b.send(Command{Command: []any{"loadfile", track.URI, "replace"}})
	b.send(Command{Command: []any{"set_property", "pause", false}})
}

// RequestPause implements core.Backend.
func (b *Backend) RequestPause(paused bool) {
	b.send(Command{Command: []any{"set_property", "pause", paused}})
}

// RequestSeek implements core.Backend.
func (b *Backend) RequestSeek(seconds float64) {
	b.send(Command{Command: []any{"seek", seconds, "absolute"}})
}

// RequestVolume implements core.Backend.
func (b *Backend) RequestVolume(percent int) {
	b.send(Command{Command: []any{"set_property", "volume", percent}})
}

// Close implements core.Backend. It stops the mpv process if Start began one.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		if b.cancel != nil {
			b.cancel()
		}
		b.killProcess()
	})
	return nil
}

func (b *Backend) killProcess() {
	if b.cmd == nil || b.cmd.Process == nil {
		return
	}
	if err := b.cmd.Process.Kill(); err != nil {
		b.log.Error().Err(err).Msg("error terminating mpv process")
	}
	_ = b.cmd.Wait()
	b.cmd = nil
	_ = os.Remove(b.socket)
}
