// Package discovery advertises the runtime's debugger endpoint the way a
// development Unity player does, so IDEs list the game without any manual
// connection setup.
package discovery

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Advertisement constants of the player protocol.
const (
	MulticastGroup = "225.0.0.222"
	MulticastPort  = 54997
	MulticastTTL   = 31

	playerVersion = 1048832
	packageName   = "WindowsPlayer"

	// The advertised listen port is random and unused by debugger clients.
	listenPortBase  = 55000
	listenPortRange = 512

	// flagsIPFromMessage tells clients to connect to [IP] rather than to the
	// datagram's source address.
	flagsIPFromMessage = 8
	flagsIPFromSource  = 0
)

var errNoAddress = errors.New("discovery: no address= option")

// Announcement is one "who am I" message.
type Announcement struct {
	IP          net.IP
	Port        uint16
	ListenPort  int
	GUID        uint32
	Host        string
	ProjectName string
}

// Flags returns the [Flags] value. Loopback endpoints are only reachable at
// the advertised address, so clients are told to use it.
func (a Announcement) Flags() int {
	if a.IP.Equal(net.IPv4(127, 0, 0, 1)) {
		return flagsIPFromMessage
	}
	return flagsIPFromSource
}

// Message renders the NUL-terminated advertisement.
func (a Announcement) Message() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[IP] %s ", a.IP)
	fmt.Fprintf(&b, "[Port] %d ", a.ListenPort)
	fmt.Fprintf(&b, "[Flags] %d ", a.Flags())
	fmt.Fprintf(&b, "[Guid] %d ", a.GUID)
	b.WriteString("[EditorId] 0 ")
	fmt.Fprintf(&b, "[Version] %d ", playerVersion)
	fmt.Fprintf(&b, "[Id] %s(%s):%d ", packageName, strings.ReplaceAll(a.Host, " ", "_"), a.Port)
	b.WriteString("[Debug] 1 ")
	fmt.Fprintf(&b, "[PackageName] %s ", packageName)
	fmt.Fprintf(&b, "[ProjectName] %s", a.ProjectName)
	b.WriteByte(0)
	return []byte(b.String())
}

// NewGUID derives the [Guid] value from a random UUID.
func NewGUID() uint32 {
	id := uuid.New()
	return binary.BigEndian.Uint32(id[:4]) & 0x7FFFFFFF
}

// ParseAgentAddress extracts address=ip:port from debugger-agent options.
func ParseAgentAddress(options string) (net.IP, uint16, error) {
	options = strings.TrimPrefix(options, "--debugger-agent=")
	for _, opt := range strings.Split(options, ",") {
		value, ok := strings.CutPrefix(strings.TrimSpace(opt), "address=")
		if !ok {
			continue
		}

		host, portStr, err := net.SplitHostPort(value)
		if err != nil {
			return nil, 0, fmt.Errorf("discovery: invalid address %q: %w", value, err)
		}
		ip := net.ParseIP(host)
		if ip == nil {
			return nil, 0, fmt.Errorf("discovery: invalid ip %q", host)
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return nil, 0, fmt.Errorf("discovery: invalid port %q: %w", portStr, err)
		}
		return ip, uint16(port), nil
	}
	return nil, 0, errNoAddress
}
