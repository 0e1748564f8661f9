package disk

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrShortIO reports a read or write that did not transfer a full
// block. There are no retries; the operation in progress fails.
var ErrShortIO = errors.New("disk: short I/O")

var _ Disk = (*FileDisk)(nil)

// FileDisk is a disk backed by a file or block device, addressed with
// pread/pwrite.
type FileDisk struct {
	fd        int
	numBlocks uint64
	readonly  bool
}

// NewFileDisk opens (creating if needed) a read-write disk of
// numBlocks blocks backed by path.
func NewFileDisk(path string, numBlocks uint64) (*FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, err)
	}
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("disk: stat %s: %w", path, err)
	}
	if (stat.Mode&unix.S_IFREG) != 0 && uint64(stat.Size) != numBlocks*BlockSize {
		if err := unix.Ftruncate(fd, int64(numBlocks*BlockSize)); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("disk: truncate %s: %w", path, err)
		}
	}
	return &FileDisk{fd: fd, numBlocks: numBlocks}, nil
}

// OpenFileDisk opens an existing device or image read-only, sizing the
// disk from the file itself.
func OpenFileDisk(path string) (*FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, err)
	}
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("disk: stat %s: %w", path, err)
	}
	return &FileDisk{
		fd:        fd,
		numBlocks: uint64(stat.Size) / BlockSize,
		readonly:  true,
	}, nil
}

func (d *FileDisk) ReadTo(a uint64, buf Block) error {
	if uint64(len(buf)) != BlockSize {
		return fmt.Errorf("disk: buffer is not block-sized (%d bytes)", len(buf))
	}
	if a >= d.numBlocks {
		return fmt.Errorf("disk: out-of-bounds read at %v", a)
	}
	n, err := unix.Pread(d.fd, buf, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("disk: read block %d: %w", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("disk: read block %d: got %d bytes: %w", a, n, ErrShortIO)
	}
	return nil
}

func (d *FileDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *FileDisk) Write(a uint64, v Block) error {
	if d.readonly {
		return fmt.Errorf("disk: write to read-only disk at %v", a)
	}
	if uint64(len(v)) != BlockSize {
		return fmt.Errorf("disk: v is not block-sized (%d bytes)", len(v))
	}
	if a >= d.numBlocks {
		return fmt.Errorf("disk: out-of-bounds write at %v", a)
	}
	n, err := unix.Pwrite(d.fd, v, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("disk: write block %d: %w", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("disk: write block %d: got %d bytes: %w", a, n, ErrShortIO)
	}
	return nil
}

func (d *FileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *FileDisk) Close() error {
	return unix.Close(d.fd)
}

var _ Disk = (*MemDisk)(nil)

// MemDisk is an in-memory disk, used by tests and fixtures.
type MemDisk struct {
	l      *sync.RWMutex
	blocks [][BlockSize]byte
}

func NewMemDisk(numBlocks uint64) *MemDisk {
	blocks := make([][BlockSize]byte, numBlocks)
	return &MemDisk{l: new(sync.RWMutex), blocks: blocks}
}

func (d *MemDisk) ReadTo(a uint64, buf Block) error {
	d.l.RLock()
	defer d.l.RUnlock()
	if a >= uint64(len(d.blocks)) {
		return fmt.Errorf("disk: out-of-bounds read at %v", a)
	}
	copy(buf, d.blocks[a][:])
	return nil
}

func (d *MemDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *MemDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		return fmt.Errorf("disk: v is not block-sized (%d bytes)", len(v))
	}
	d.l.Lock()
	defer d.l.Unlock()
	if a >= uint64(len(d.blocks)) {
		return fmt.Errorf("disk: out-of-bounds write at %v", a)
	}
	copy(d.blocks[a][:], v)
	return nil
}

func (d *MemDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.blocks)), nil
}

func (d *MemDisk) Close() error { return nil }
