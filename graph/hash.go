package graph

import "github.com/minio/highwayhash"

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Hash fingerprints a translation unit's raw bytes for the optional
// change-detection property attached to Info (§2 domain stack). It plays
// no part in resolution or any graph invariant.
func Hash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	_, err = h.Write(data)
	return h.Sum64(), err
}
