// Package sdb rewrites Windows paths in the replies of the runtime's soft
// debugger wire protocol so clients on the emulation host can open them.
package sdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Wire layout of a packet header.
const (
	HeaderLen        = 11
	offsetLength     = 0
	offsetID         = 4
	offsetFlags      = 8
	offsetCommandSet = 9
	offsetCommandID  = 10
	fieldPrefixLen   = 4
)

// FlagReply marks a packet as a reply.
const FlagReply uint8 = 0x80

var (
	ErrShortHeader = errors.New("sdb: short packet header")
	ErrShortField  = errors.New("sdb: field exceeds packet")
	ErrShortTarget = errors.New("sdb: target string shorter than drive prefix")
	ErrShortTrail  = errors.New("sdb: missing trailing bytes after target")
)

// Command identifies a request by command set and command id.
type Command struct {
	Set uint8
	ID  uint8
}

// String renders the command as set/id.
func (c Command) String() string {
	return fmt.Sprintf("%d/%d", c.Set, c.ID)
}

// ParseCommand parses the set/id form produced by String.
func ParseCommand(s string) (Command, error) {
	set, id, ok := strings.Cut(s, "/")
	if !ok {
		return Command{}, fmt.Errorf("sdb: command %q is not set/id", s)
	}
	cs, err := strconv.ParseUint(set, 10, 8)
	if err != nil {
		return Command{}, fmt.Errorf("sdb: command set %q: %w", set, err)
	}
	ci, err := strconv.ParseUint(id, 10, 8)
	if err != nil {
		return Command{}, fmt.Errorf("sdb: command id %q: %w", id, err)
	}
	return Command{Set: uint8(cs), ID: uint8(ci)}, nil
}

// Requests whose replies carry an on-disk path.
var (
	CmdAssemblyGetLocation = Command{Set: 21, ID: 1}
	CmdModuleGetInfo       = Command{Set: 24, ID: 1}
)

// Header is the fixed packet header.
type Header struct {
	Length  uint32
	ID      uint32
	Flags   uint8
	Command Command
}

// DecodeHeader reads the header at the start of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, ErrShortHeader
	}
	return Header{
		Length: binary.BigEndian.Uint32(b[offsetLength:]),
		ID:     binary.BigEndian.Uint32(b[offsetID:]),
		Flags:  b[offsetFlags],
		Command: Command{
			Set: b[offsetCommandSet],
			ID:  b[offsetCommandID],
		},
	}, nil
}

// AppendHeader appends the encoded header to dst.
func AppendHeader(dst []byte, h Header) []byte {
	dst = binary.BigEndian.AppendUint32(dst, h.Length)
	dst = binary.BigEndian.AppendUint32(dst, h.ID)
	return append(dst, h.Flags, h.Command.Set, h.Command.ID)
}

// AppendString appends a length-prefixed string field to dst.
func AppendString(dst []byte, s string) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

// field locates one length-prefixed field. prefix is the offset of its length
// word, data and end delimit its bytes.
type field struct {
	prefix int
	data   int
	end    int
}

// fieldAt walks length-prefixed fields from the end of the header and returns
// the one at index.
func fieldAt(b []byte, index int) (field, error) {
	if len(b) < HeaderLen {
		return field{}, ErrShortHeader
	}

	pos := HeaderLen
	for i := 0; ; i++ {
		if len(b)-pos < fieldPrefixLen {
			return field{}, ErrShortField
		}
		n := int(binary.BigEndian.Uint32(b[pos:]))
		data := pos + fieldPrefixLen
		if n < 0 || n > len(b)-data {
			return field{}, ErrShortField
		}
		if i == index {
			return field{prefix: pos, data: data, end: data + n}, nil
		}
		pos = data + n
	}
}
