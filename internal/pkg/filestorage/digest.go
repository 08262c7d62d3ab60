package filestorage

import (
	"encoding/hex"
	"hash"
	"io"

	"github.com/zeebo/blake3"
)

// Digest returns the hex blake3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digestReader tees everything read through it into a blake3 hasher.
type digestReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

func newDigestReader(r io.Reader) *digestReader {
	return &digestReader{r: r, h: blake3.New()}
}

func (d *digestReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if n > 0 {
		d.h.Write(p[:n])
		d.n += int64(n)
	}
	return n, err
}

func (d *digestReader) info(key string) *ObjectInfo {
	return &ObjectInfo{
		Key:    key,
		Size:   d.n,
		Digest: hex.EncodeToString(d.h.Sum(nil)),
	}
}
