// Package dir iterates the packed directory records of a directory
// inode.
//
// A Cursor is a lazy, restartable walk over the inode's byte stream
// in DirentSize strides. The cursor owns its block buffer and
// refetches a block only when the running offset crosses a block
// boundary.
package dir

import (
	"errors"
	"fmt"

	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/inode"
	"github.com/numbfs/numbfs-tools/ondisk"
)

// ErrTruncatedEntry means the directory size is not a multiple of the
// entry size. The trailing partial record is still yielded, but its
// content past the declared size is garbage; this is a detected
// inconsistency, not a crash.
var ErrTruncatedEntry = errors.New("dir: directory size is not a multiple of the entry size")

// Cursor walks a directory inode one entry at a time.
type Cursor struct {
	ino *inode.Inode
	off uint64
	blk disk.Block
	err error
}

// NewCursor positions a cursor at the first entry of ino.
func NewCursor(ino *inode.Inode) *Cursor {
	return &Cursor{
		ino: ino,
		blk: make(disk.Block, disk.BlockSize),
	}
}

// Next yields the next directory entry, or ok=false once the offset
// has reached the inode's size or an error stopped the walk. After a
// false return, Err reports what (if anything) went wrong.
func (c *Cursor) Next() (*ondisk.Dirent, bool) {
	if c.err != nil || c.off >= c.ino.Size {
		return nil, false
	}

	if c.off%disk.BlockSize == 0 {
		if err := c.ino.Pread(c.blk, c.off); err != nil {
			c.err = fmt.Errorf("dir: inode %d offset %d: %w", c.ino.Nid, c.off, err)
			return nil, false
		}
	}

	de := ondisk.DecodeDirent(c.blk[c.off%disk.BlockSize:])
	if c.off+ondisk.DirentSize > c.ino.Size {
		// partial trailing record: emit it, but flag the directory
		c.err = fmt.Errorf("%w: size %d", ErrTruncatedEntry, c.ino.Size)
	}
	c.off += ondisk.DirentSize
	return de, true
}

// Err returns the error that terminated or tainted the walk, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Reset rewinds the cursor to the first entry.
func (c *Cursor) Reset() {
	c.off = 0
	c.err = nil
}
