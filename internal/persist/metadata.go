package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	metadataFile    = "metadata.bin"
	metadataMagic   = 0x524D4245 // "EBMR" little-endian
	metadataVersion = 1
)

var ErrBadMetadata = errors.New("metadata file is corrupt")

// Metadata is the server-wide counter state. Counters hold the next value to
// hand out; zero is reserved and skipped.
type Metadata struct {
	NextAccountID uint64
	NextMessageID uint64
	NextUid       uint64
	RngSeed       uint64

	dirty bool
}

type metadataDisk struct {
	Magic         uint32
	Version       uint32
	NextAccountID uint64
	NextMessageID uint64
	NextUid       uint64
	RngSeed       uint64
}

func alloc(counter *uint64) uint64 {
	if *counter == 0 {
		*counter = 1
	}
	id := *counter
	*counter++
	return id
}

func (m *Metadata) AllocAccountID() uint64 {
	m.dirty = true
	return alloc(&m.NextAccountID)
}

func (m *Metadata) AllocMessageID() uint64 {
	m.dirty = true
	return alloc(&m.NextMessageID)
}

// SetNextUid records the unit id counter before a save.
func (m *Metadata) SetNextUid(next uint64) {
	if m.NextUid != next {
		m.NextUid = next
		m.dirty = true
	}
}

// Seed returns the simulation RNG seed, drawing it from gen and marking the
// metadata for saving the first time.
func (m *Metadata) Seed(gen func() uint64) uint64 {
	for m.RngSeed == 0 {
		m.RngSeed = gen()
		m.dirty = true
	}
	return m.RngSeed
}

func (m *Metadata) Dirty() bool { return m.dirty }

// LoadMetadata reads <root>/metadata.bin. A missing file yields zero counters,
// which are written out immediately.
func LoadMetadata(root string) (*Metadata, error) {
	path := filepath.Join(root, metadataFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		m := &Metadata{}
		if err := m.Save(root); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var d metadataDisk
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMetadata, err)
	}
	if d.Magic != metadataMagic || d.Version != metadataVersion {
		return nil, fmt.Errorf("%w: magic %#x version %d", ErrBadMetadata, d.Magic, d.Version)
	}
	return &Metadata{
		NextAccountID: d.NextAccountID,
		NextMessageID: d.NextMessageID,
		NextUid:       d.NextUid,
		RngSeed:       d.RngSeed,
	}, nil
}

// Save writes the metadata atomically via a temp file and rename.
func (m *Metadata) Save(root string) error {
	d := metadataDisk{
		Magic:         metadataMagic,
		Version:       metadataVersion,
		NextAccountID: m.NextAccountID,
		NextMessageID: m.NextMessageID,
		NextUid:       m.NextUid,
		RngSeed:       m.RngSeed,
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &d); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(root, metadataFile), buf.Bytes()); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	m.dirty = false
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
