package sdb

import (
	"bytes"
	"encoding/binary"
)

// drivePrefixLen is the "Z:" dropped from every translated path.
const drivePrefixLen = 2

// replyLayout describes where the path sits in a reply.
type replyLayout struct {
	// fieldsBefore is the number of string fields preceding the path.
	fieldsBefore int
	// trailing is the number of bytes that must follow the path field.
	trailing int
}

var layouts = map[Command]replyLayout{
	// ASSEMBLY GET_LOCATION: the path is the only field.
	CmdAssemblyGetLocation: {fieldsBefore: 0, trailing: 0},
	// MODULE GET_INFO: basename, scope name, fully qualified name, guid int.
	CmdModuleGetInfo: {fieldsBefore: 2, trailing: 4},
}

// Recognized reports whether replies to cmd are rewritten.
func Recognized(cmd Command) bool {
	_, ok := layouts[cmd]
	return ok
}

// TranslatePath turns an emulated Windows path into a host path by dropping
// the drive prefix and flipping every backslash.
func TranslatePath(p []byte) ([]byte, error) {
	if len(p) < drivePrefixLen {
		return nil, ErrShortTarget
	}
	return bytes.ReplaceAll(p[drivePrefixLen:], []byte{'\\'}, []byte{'/'}), nil
}

// RewriteReply returns a copy of the reply to cmd with its path translated.
// The path field and the total length both shrink by the drive prefix; every
// other byte is preserved. The input is never modified.
func RewriteReply(cmd Command, reply []byte) ([]byte, error) {
	layout, ok := layouts[cmd]
	if !ok {
		return reply, nil
	}

	h, err := DecodeHeader(reply)
	if err != nil {
		return nil, err
	}

	target, err := fieldAt(reply, layout.fieldsBefore)
	if err != nil {
		return nil, err
	}
	if len(reply)-target.end < layout.trailing {
		return nil, ErrShortTrail
	}

	path, err := TranslatePath(reply[target.data:target.end])
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(reply)-drivePrefixLen)
	out = append(out, reply[:target.prefix]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(path)))
	out = append(out, path...)
	out = append(out, reply[target.end:]...)

	binary.BigEndian.PutUint32(out[offsetLength:], h.Length-drivePrefixLen)
	return out, nil
}
