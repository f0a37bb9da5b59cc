package discovery

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"

	"github.com/venusroot/bootstrap/internal/constants"
	"github.com/venusroot/bootstrap/internal/errors"
	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/retry"
	"github.com/venusroot/bootstrap/internal/win32"
)

// SendToFunction is the export hooked on development players.
const SendToFunction = "sendto"

// Settings configures an Announcer.
type Settings struct {
	// PlayerModule imports sendto on development players.
	PlayerModule string
	ProjectName  string
	// Hostname defaults to os.Hostname.
	Hostname string
	// Destination defaults to the player multicast group.
	Destination *net.UDPAddr
	// Interval defaults to one second.
	Interval time.Duration
}

// Deps are the collaborators of an Announcer.
type Deps struct {
	Hooks   hook.Installer
	Thunks  *native.Thunks
	Sockets win32.Sockets
	// Dial defaults to a UDP socket configured like the player's own.
	Dial func() (net.PacketConn, error)
	// Getenv defaults to os.LookupEnv.
	Getenv func(key string) (string, bool)
	Logger zerolog.Logger
}

// Announcer advertises the debugger endpoint with one of two strategies: a
// socket of its own sending on a timer, or the development player's own
// sendto with the message swapped for ours.
type Announcer struct {
	settings Settings
	deps     Deps
	logger   zerolog.Logger

	mu      sync.Mutex
	message []byte
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	hooked  bool
	thunk   native.Thunk
}

// New creates an Announcer.
func New(settings Settings, deps Deps) *Announcer {
	if settings.Destination == nil {
		settings.Destination = &net.UDPAddr{IP: net.ParseIP(MulticastGroup), Port: MulticastPort}
	}
	if settings.Interval <= 0 {
		settings.Interval = time.Second
	}
	if settings.Hostname == "" {
		settings.Hostname, _ = os.Hostname()
	}
	if deps.Dial == nil {
		deps.Dial = DialMulticast
	}
	if deps.Getenv == nil {
		deps.Getenv = os.LookupEnv
	}
	return &Announcer{
		settings: settings,
		deps:     deps,
		logger:   deps.Logger.With().Str("component", "discovery").Logger(),
	}
}

// Announcement builds the advertisement for the configured endpoint. An
// address in the debugger-agent override wins over ip and port.
func (a *Announcer) Announcement(ip string, port uint16) (Announcement, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return Announcement{}, fmt.Errorf("discovery: invalid ip %q", ip)
	}

	if override, ok := a.deps.Getenv(constants.EnvDebuggerAgentOverride); ok {
		oip, oport, err := ParseAgentAddress(override)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Ignoring debugger-agent override for discovery")
		} else {
			addr, port = oip, oport
			a.logger.Info().
				Str("ip", addr.String()).
				Uint16("port", port).
				Str("variable", constants.EnvDebuggerAgentOverride).
				Msg("Advertised endpoint overridden by the environment")
		}
	}

	return Announcement{
		IP:          addr,
		Port:        port,
		ListenPort:  listenPortBase + rand.IntN(listenPortRange),
		GUID:        NewGUID(),
		Host:        a.settings.Hostname,
		ProjectName: a.settings.ProjectName,
	}, nil
}

// Message returns the advertisement currently sent, or nil.
func (a *Announcer) Message() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.message
}

// StartWithOwnSocket sends the advertisement from a new socket now and then
// on every interval until Stop.
func (a *Announcer) StartWithOwnSocket(ip string, port uint16) error {
	ann, err := a.Announcement(ip, port)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	var conn net.PacketConn
	err = retry.Do(context.Background(), retry.Config{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
	}, func() error {
		var dialErr error
		conn, dialErr = a.deps.Dial()
		return dialErr
	}, nil)
	if err != nil {
		return fmt.Errorf("discovery: open socket: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.message = ann.Message()

	a.logger.Info().
		Str("message", printable(a.message)).
		Stringer("destination", a.settings.Destination).
		Dur("interval", a.settings.Interval).
		Msg("Advertising the debugger")

	a.wg.Add(1)
	go a.sendLoop(ctx, conn, a.message)
	return nil
}

func (a *Announcer) sendLoop(ctx context.Context, conn net.PacketConn, msg []byte) {
	defer a.wg.Done()
	defer errors.DeferClose(a.logger, conn, "failed to close discovery socket")

	ticker := time.NewTicker(a.settings.Interval)
	defer ticker.Stop()

	for {
		n, err := conn.WriteTo(msg, a.settings.Destination)
		if err != nil {
			a.logger.Debug().Err(err).Msg("Advertisement send failed")
		} else {
			a.logger.Trace().Int("bytes", n).Msg("Sent advertisement")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the own-socket advertisement without waiting for the sender to
// exit. It is safe to call at any time and more than once.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
	}
}

// Wait blocks until the own-socket sender has exited.
func (a *Announcer) Wait() {
	a.wg.Wait()
}

// StartWithSendToHook hooks the player's sendto so every datagram it sends
// carries our advertisement instead.
func (a *Announcer) StartWithSendToHook(ip string, port uint16) error {
	ann, err := a.Announcement(ip, port)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.message = ann.Message()
	if a.hooked {
		return nil
	}

	th, err := a.deps.Thunks.MakeFor(a, sendToEntry)
	if err != nil {
		return err
	}
	a.thunk = th
	a.hooked = true
	a.deps.Hooks.Install(a.settings.PlayerModule, SendToFunction, th.Address)

	a.logger.Info().Str("message", printable(a.message)).Msg("Replacing the player's advertisement")
	return nil
}

// SendTo is the sendto replacement.
func (a *Announcer) SendTo(s win32.Socket, buf []byte, flags int32, to uintptr, toLen int32) int32 {
	msg := a.Message()
	if msg == nil {
		return a.deps.Sockets.SendTo(s, buf, flags, to, toLen)
	}

	return errors.Guard(a.logger, SendToFunction, func() int32 {
		a.logger.Trace().Int("bytes", len(msg)).Msg("Overriding player advertisement")
		return a.deps.Sockets.SendTo(s, msg, flags, to, toLen)
	}, func() int32 {
		return a.deps.Sockets.SendTo(s, buf, flags, to, toLen)
	})
}

// DialMulticast opens a UDP socket with the multicast options a development
// player uses.
func DialMulticast() (net.PacketConn, error) {
	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return nil, err
	}

	p := ipv4.NewPacketConn(conn)
	for _, set := range []func() error{
		func() error { return p.SetMulticastTTL(MulticastTTL) },
		func() error { return p.SetTTL(MulticastTTL) },
		func() error { return p.SetMulticastLoopback(true) },
	} {
		if err := set(); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func printable(msg []byte) string {
	return strings.TrimRight(string(msg), "\x00")
}
