package signet_test

import (
	"bytes"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/sagarc03/signet"
	"github.com/stretchr/testify/assert"
)

var keyPattern = regexp.MustCompile(`^uploads/\d{4}-\d{2}-\d{2}/[0-9a-f]{32}(\.\w+)?$`)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

func TestKeyDeriver_Derive_Format(t *testing.T) {
	d := signet.NewKeyDeriver()

	assert.Regexp(t, keyPattern, d.Derive(""))
	assert.Regexp(t, keyPattern, d.Derive("png"))
	assert.NotContains(t, d.Derive(""), ".")
}

func TestKeyDeriver_Derive_Deterministic(t *testing.T) {
	clock := func() time.Time {
		// late evening in UTC-5 is already the next day in UTC
		return time.Date(2026, 2, 27, 21, 30, 0, 0, time.FixedZone("EST", -5*3600))
	}
	random := bytes.NewReader(bytes.Repeat([]byte{0xab}, 16))

	d := signet.NewKeyDeriver(signet.WithClock(clock), signet.WithRandom(random))

	assert.Equal(t, "uploads/2026-02-28/abababababababababababababababab.webp", d.Derive("webp"))
}

func TestKeyDeriver_Derive_Unique(t *testing.T) {
	d := signet.NewKeyDeriver()

	const n = 10000
	seen := make(map[string]struct{}, n)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range n / 8 {
				k := d.Derive("png")
				mu.Lock()
				seen[k] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

func TestKeyDeriver_Derive_EntropyFailurePanics(t *testing.T) {
	d := signet.NewKeyDeriver(signet.WithRandom(failingReader{}))

	assert.Panics(t, func() { d.Derive("png") })
}

func TestKeyDeriver_Derive_ShortEntropyPanics(t *testing.T) {
	d := signet.NewKeyDeriver(signet.WithRandom(bytes.NewReader([]byte{1, 2, 3})))

	assert.Panics(t, func() { d.Derive("") })
}
