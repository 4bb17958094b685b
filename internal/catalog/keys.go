package catalog

import "encoding/binary"

var keyOIDCounter = []byte("cat/meta/oid")

func keyTable(oid uint64) []byte {
	k := make([]byte, 0, 6+8)
	k = append(k, "cat/t/"...)
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], oid)
	return append(k, be[:]...)
}

func keyName(name string) []byte {
	return append([]byte("cat/n/"), name...)
}

// tableScanBounds returns the half-open key range holding all table
// descriptors.
func tableScanBounds() (lower, upper []byte) {
	return []byte("cat/t/"), []byte("cat/t0")
}
