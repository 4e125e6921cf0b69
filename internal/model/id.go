package model

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"time"
)

// NewID returns a new record identifier: the current millisecond
// timestamp in base36 followed by a random base36 suffix.
func NewID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	var buf [8]byte
	suffix := "0"
	if _, err := rand.Read(buf[:]); err == nil {
		n := binary.BigEndian.Uint64(buf[:]) % (36 * 36 * 36 * 36 * 36 * 36)
		suffix = strconv.FormatUint(n, 36)
	}
	return ts + suffix
}
