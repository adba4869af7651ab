package pager

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ───────────────────────────────────────────────────────────────────────────
// Row
// ───────────────────────────────────────────────────────────────────────────
//
// Row is the engine's only value type: a fixed three-column schema of an
// unsigned id (also the primary key), a username of up to 32 bytes, and an
// email of up to 255 bytes. Both strings are stored NUL-padded in fields one
// byte larger than their maximum length.

const (
	MaxUsernameLen = 32
	MaxEmailLen    = 255

	idSize       = 4
	usernameSize = MaxUsernameLen + 1
	emailSize    = MaxEmailLen + 1

	idOffset       = 0
	usernameOffset = idOffset + idSize
	emailOffset    = usernameOffset + usernameSize

	// RowSize is the serialized size of a Row: 4 + 33 + 256 = 293 bytes.
	RowSize = idSize + usernameSize + emailSize
)

var (
	// ErrStringTooLong is returned when a username or email exceeds its
	// maximum length.
	ErrStringTooLong = errors.New("string is too long")
)

// Row is the decoded, in-memory form of one table row.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// NewRow validates and constructs a Row. It is the single checked entry
// point; SerializeRow assumes its input has already passed through here.
func NewRow(id uint32, username, email string) (Row, error) {
	if len(username) > MaxUsernameLen {
		return Row{}, fmt.Errorf("%w: username %q is %d bytes, max %d", ErrStringTooLong, username, len(username), MaxUsernameLen)
	}
	if len(email) > MaxEmailLen {
		return Row{}, fmt.Errorf("%w: email %q is %d bytes, max %d", ErrStringTooLong, email, len(email), MaxEmailLen)
	}
	return Row{ID: id, Username: username, Email: email}, nil
}

// SerializeRow writes row into a RowSize-byte destination buffer.
func SerializeRow(row Row, destination []byte) {
	binary.LittleEndian.PutUint32(destination[idOffset:], row.ID)

	clear(destination[usernameOffset : usernameOffset+usernameSize])
	copy(destination[usernameOffset:], row.Username)

	clear(destination[emailOffset : emailOffset+emailSize])
	copy(destination[emailOffset:], row.Email)
}

// DeserializeRow reads a Row out of a RowSize-byte source buffer.
func DeserializeRow(source []byte) Row {
	id := binary.LittleEndian.Uint32(source[idOffset:])
	username := nulTerminated(source[usernameOffset : usernameOffset+usernameSize])
	email := nulTerminated(source[emailOffset : emailOffset+emailSize])
	return Row{ID: id, Username: username, Email: email}
}

// nulTerminated returns the string up to (not including) the first NUL byte,
// or the whole field if it holds no NUL. SerializeRow always leaves at least
// one trailing NUL, since each field is one byte longer than its maximum
// length.
func nulTerminated(field []byte) string {
	for i, b := range field {
		if b == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}
