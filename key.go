package signet

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

const (
	// KeyPrefix is the top-level segment of every derived key.
	KeyPrefix = "uploads"
	// KeyDateFormat partitions keys by the UTC day they were issued.
	KeyDateFormat = "2006-01-02"

	keyRandomBytes = 16
)

// KeyDeriver builds object keys of the form
// uploads/<YYYY-MM-DD>/<32 hex chars>[.<ext>].
//
// A KeyDeriver is safe for concurrent use as long as its random source is;
// the default crypto/rand reader is.
type KeyDeriver struct {
	now  func() time.Time
	rand io.Reader
}

type KeyOption func(*KeyDeriver)

// WithClock overrides the time source used for the date segment.
func WithClock(now func() time.Time) KeyOption {
	return func(d *KeyDeriver) {
		d.now = now
	}
}

// WithRandom overrides the entropy source. Intended for tests.
func WithRandom(r io.Reader) KeyOption {
	return func(d *KeyDeriver) {
		d.rand = r
	}
}

func NewKeyDeriver(opts ...KeyOption) *KeyDeriver {
	d := &KeyDeriver{
		now:  time.Now,
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive returns a fresh key. ext must already be normalized (see NormalizeExt);
// an empty ext yields a key without a suffix.
//
// Derive panics if the entropy source fails. A key derived from short or
// predictable randomness is never returned.
func (d *KeyDeriver) Derive(ext string) string {
	var buf [keyRandomBytes]byte
	if _, err := io.ReadFull(d.rand, buf[:]); err != nil {
		panic(fmt.Sprintf("derive key: read random bytes: %v", err))
	}

	key := KeyPrefix + "/" + d.now().UTC().Format(KeyDateFormat) + "/" + hex.EncodeToString(buf[:])
	if ext != "" {
		key += "." + ext
	}
	return key
}
