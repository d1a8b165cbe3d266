package tileset

import (
	"bytes"
	"fmt"
	"image"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
)

// Fingerprint is a 64-bit xxHash of a tile's canonical pixel bytes.
type Fingerprint uint64

// String returns the fingerprint as 16 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid fingerprint %q: %w", text, err)
	}
	*f = Fingerprint(v)
	return nil
}

// FingerprintOf hashes the pixels of tile row by row, skipping any stride
// padding, so equal pixels always give equal fingerprints regardless of
// how the buffer is laid out.
func FingerprintOf(tile *image.NRGBA) Fingerprint {
	w, h := tile.Rect.Dx(), tile.Rect.Dy()
	rowBytes := w * 4
	if tile.Stride == rowBytes {
		return Fingerprint(xxhash.Sum64(tile.Pix[:rowBytes*h]))
	}
	d := xxhash.New()
	for y := 0; y < h; y++ {
		i := y * tile.Stride
		_, _ = d.Write(tile.Pix[i : i+rowBytes])
	}
	return Fingerprint(d.Sum64())
}

// Deduplicator keeps the first-seen representative of every distinct tile
// in discovery order.
//
// A fingerprint hit is confirmed byte-for-byte against the retained tile, so
// two different tiles that happen to share a fingerprint are both kept.
type Deduplicator struct {
	index   map[Fingerprint][]int
	uniques []*image.NRGBA
	prints  []Fingerprint
}

// NewDeduplicator returns an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		index: make(map[Fingerprint][]int),
	}
}

// Add fingerprints tile and records it. See AddHashed.
func (d *Deduplicator) Add(tile *image.NRGBA) (id int, isNew bool) {
	return d.AddHashed(FingerprintOf(tile), tile)
}

// AddHashed records tile under a precomputed fingerprint. It returns the id
// of the unique tile matching tile's pixels and whether tile was new. New
// tiles are copied, so tile may be a scratch buffer that the caller reuses.
func (d *Deduplicator) AddHashed(fp Fingerprint, tile *image.NRGBA) (id int, isNew bool) {
	for _, candidate := range d.index[fp] {
		if samePixels(d.uniques[candidate], tile) {
			return candidate, false
		}
	}
	id = len(d.uniques)
	d.uniques = append(d.uniques, imaging.Clone(tile))
	d.prints = append(d.prints, fp)
	d.index[fp] = append(d.index[fp], id)
	return id, true
}

// Len returns the number of unique tiles seen so far.
func (d *Deduplicator) Len() int {
	return len(d.uniques)
}

// Unique returns the representative tile with the given id.
func (d *Deduplicator) Unique(id int) *image.NRGBA {
	return d.uniques[id]
}

// Fingerprint returns the fingerprint of the unique tile with the given id.
func (d *Deduplicator) Fingerprint(id int) Fingerprint {
	return d.prints[id]
}

// Release drops the representative with the given id once it has been
// packed, leaving its slot empty.
func (d *Deduplicator) Release(id int) {
	d.uniques[id] = nil
}

// samePixels compares two equally sized tiles row by row.
func samePixels(a, b *image.NRGBA) bool {
	if a == nil || b == nil || a.Rect.Size() != b.Rect.Size() {
		return false
	}
	w, h := a.Rect.Dx(), a.Rect.Dy()
	rowBytes := w * 4
	for y := 0; y < h; y++ {
		ai, bi := y*a.Stride, y*b.Stride
		if !bytes.Equal(a.Pix[ai:ai+rowBytes], b.Pix[bi:bi+rowBytes]) {
			return false
		}
	}
	return true
}
