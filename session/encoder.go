package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	recordFormatVersionCurrent = 2
	maxFieldLen                = math.MaxUint16
)

// CurrentSchemaVersion is the version byte written by Encode.
const CurrentSchemaVersion = recordFormatVersionCurrent

// Encode serializes r as:
//
//	version(1) | len(2) adminID | len(2) adminUsername | lastActivity(8, BE) | len(2) csrfToken
//
// Lengths are big-endian uint16.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil session record")
	}

	var buf bytes.Buffer
	buf.Grow(7 + len(r.AdminID) + len(r.AdminUsername) + 8 + len(r.CSRFToken))
	buf.WriteByte(recordFormatVersionCurrent)

	if err := writeField(&buf, "adminID", r.AdminID); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "adminUsername", r.AdminUsername); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.LastActivity); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "csrfToken", r.CSRFToken); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}

	r := &Record{}
	if r.AdminID, err = readField(reader); err != nil {
		return nil, err
	}
	if r.AdminUsername, err = readField(reader); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.LastActivity); err != nil {
		return nil, err
	}
	if r.CSRFToken, err = readField(reader); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in session record")
	}

	return r, nil
}

func writeField(buf *bytes.Buffer, name, value string) error {
	if len(value) > maxFieldLen {
		return fmt.Errorf("%s too long", name)
	}
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(value)))
	buf.Write(n[:])
	buf.WriteString(value)
	return nil
}

func readField(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if int(n) > reader.Len() {
		return "", io.ErrUnexpectedEOF
	}
	value := make([]byte, n)
	if _, err := io.ReadFull(reader, value); err != nil {
		return "", err
	}
	return string(value), nil
}
