package index

import (
	"bytes"
	"encoding/binary"
)

// key = seq(8, big endian) so cursor order equals insertion order
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// key = seq(8) + 0x00 + slug
func makeSeqSlugKey(seq uint64, slug string) []byte {
	buf := make([]byte, 0, 8+1+len(slug))
	buf = append(buf, seqKey(seq)...)
	buf = append(buf, 0x00)
	buf = append(buf, []byte(slug)...)
	return buf
}

func slugFromSeqSlugKey(k []byte) string {
	if len(k) < 8+2 || k[8] != 0x00 {
		return ""
	}
	return string(bytes.Clone(k[9:]))
}
