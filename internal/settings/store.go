// internal/settings/store.go
package settings

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tamzrod/evms-monitor/internal/protocol"
)

// Persisted image layout (little-endian):
//
//	[4 .. 4+35)        settings bytes
//	[39 .. 47)         cell counts, two modules per byte
//	[47 .. 49)         checksum: sum of the 43 bytes above
//	[49 .. 53)         watermark 0xC0FFEE
//	[120]              display brightness, stored on its own
const (
	ImageSize      = 4096
	imageOffset    = 4
	cellsOffset    = imageOffset + int(NumSettings)
	checksumOffset = cellsOffset + protocol.MaxModules/2
	markOffset     = checksumOffset + 2
	BrightnessAddr = 120

	watermark = 0xC0FFEE
)

var (
	// ErrBlank means the image has never been written.
	ErrBlank = errors.New("settings: blank image")
	// ErrCorrupt means the image checksum does not match its content.
	ErrCorrupt = errors.New("settings: corrupt image")
)

// Status is the outcome of loading a persisted image.
type Status int

const (
	StatusBlank Status = iota
	StatusCorrupt
	StatusOK
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCorrupt:
		return "corrupt"
	default:
		return "blank"
	}
}

// Store loads and saves the raw non-volatile image.
type Store interface {
	Load() ([]byte, error)
	Save(img []byte) error
}

// ---- IMAGE CODEC ----

// Encode writes the table into img, which must be at least ImageSize long.
// Bytes outside the settings region are left untouched.
func (t *Table) Encode(img []byte) {
	var sum uint16
	for i, v := range t.Values {
		img[imageOffset+i] = v
		sum += uint16(v)
	}
	for i, b := range protocol.PackCellCounts(t.Cells) {
		img[cellsOffset+i] = b
		sum += uint16(b)
	}
	binary.LittleEndian.PutUint16(img[checksumOffset:], sum)
	binary.LittleEndian.PutUint32(img[markOffset:], watermark)
}

// Decode validates img and, only when it is intact, copies it into t.
// On ErrBlank or ErrCorrupt t keeps its previous content.
func (t *Table) Decode(img []byte) error {
	if len(img) < markOffset+4 {
		return ErrBlank
	}
	if binary.LittleEndian.Uint32(img[markOffset:]) != watermark {
		return ErrBlank
	}

	var sum uint16
	for _, b := range img[imageOffset:checksumOffset] {
		sum += uint16(b)
	}
	if sum != binary.LittleEndian.Uint16(img[checksumOffset:]) {
		return ErrCorrupt
	}

	cells, err := protocol.UnpackCellCounts(img[cellsOffset:checksumOffset])
	if err != nil {
		return err
	}
	copy(t.Values[:], img[imageOffset:cellsOffset])
	t.Cells = cells
	return nil
}

// ---- STORE OPERATIONS ----

// Load reads the store into t and reports the image status. The error is
// only non-nil for store failures; a blank or corrupt image is a status.
func Load(st Store, t *Table) (Status, error) {
	img, err := st.Load()
	if err != nil {
		return StatusBlank, fmt.Errorf("settings: load: %w", err)
	}
	switch err := t.Decode(img); {
	case err == nil:
		return StatusOK, nil
	case errors.Is(err, ErrCorrupt):
		return StatusCorrupt, nil
	default:
		return StatusBlank, nil
	}
}

// Save persists t, keeping every other byte of the image.
func Save(st Store, t *Table) error {
	img, err := readImage(st)
	if err != nil {
		return err
	}
	t.Encode(img)
	if err := st.Save(img); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}

// LoadBrightness returns the stored display brightness byte.
func LoadBrightness(st Store) (uint8, error) {
	img, err := readImage(st)
	if err != nil {
		return 0, err
	}
	return img[BrightnessAddr], nil
}

func SaveBrightness(st Store, b uint8) error {
	img, err := readImage(st)
	if err != nil {
		return err
	}
	img[BrightnessAddr] = b
	if err := st.Save(img); err != nil {
		return fmt.Errorf("settings: save brightness: %w", err)
	}
	return nil
}

func readImage(st Store) ([]byte, error) {
	img, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("settings: read image: %w", err)
	}
	if len(img) < ImageSize {
		full := make([]byte, ImageSize)
		copy(full, img)
		img = full
	}
	return img, nil
}

// ---- FILE STORE ----

// FileStore keeps the image in a single file. A missing file reads as a
// blank image.
type FileStore struct {
	Path string
}

func (f FileStore) Load() ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return make([]byte, ImageSize), nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Save replaces the file atomically.
func (f FileStore) Save(img []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".settings-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(img); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

// MemStore is an in-memory Store.
type MemStore struct {
	Image []byte
}

func (m *MemStore) Load() ([]byte, error) {
	out := make([]byte, len(m.Image))
	copy(out, m.Image)
	return out, nil
}

func (m *MemStore) Save(img []byte) error {
	m.Image = append(m.Image[:0], img...)
	return nil
}
