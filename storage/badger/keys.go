package badger

import (
	"encoding/binary"

	"github.com/foduucom/themeconv/core"
)

// Key prefixes for different data types
const (
	fingerprintRecordPrefix = "fprec:"
	fingerprintIndexPrefix  = "fphash:"
	fingerprintSeq          = "fpseq"
)

// makeRecordKey generates a key for a cache record by sequence number.
// Format: prefix + big-endian seq, so iteration order is insertion order.
func makeRecordKey(seq uint64) []byte {
	buf := make([]byte, len(fingerprintRecordPrefix)+8)
	offset := copy(buf, fingerprintRecordPrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeIndexKey generates the fingerprint index key.
// Format: prefix:hex
func makeIndexKey(fp core.Fingerprint) []byte {
	return []byte(fingerprintIndexPrefix + string(fp))
}
