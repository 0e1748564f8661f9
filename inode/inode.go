// Package inode resolves on-disk inodes and reads their data.
//
// An Inode is decoded on demand from the inode table and is read-only
// for the life of the run. Positioned reads go through the inode's
// direct block map; holes and reads past the end of the file yield
// zero bytes.
package inode

import (
	"errors"
	"fmt"

	"github.com/numbfs/numbfs-tools/common"
	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/ondisk"
	"github.com/numbfs/numbfs-tools/super"
	"github.com/numbfs/numbfs-tools/util"
)

var (
	// ErrNotFound means the inode number is outside the inode table.
	ErrNotFound = errors.New("inode: not found")

	// ErrOutOfRange means a positioned read past the direct map.
	ErrOutOfRange = errors.New("inode: position out of range")
)

// Inode is a decoded inode plus the handles needed to read its data.
type Inode struct {
	d  disk.Disk
	fs *super.FsInfo

	Nid        common.Inum
	Mode       uint32
	Nlink      uint64
	Uid        uint64
	Gid        uint64
	Size       uint64
	XattrStart ondisk.BlockPtr
	XattrCount uint8
	Data       [common.NDATABLKS]ondisk.BlockPtr
}

// Get resolves inode nid from the inode table.
func Get(d disk.Disk, fs *super.FsInfo, nid common.Inum) (*Inode, error) {
	if uint64(nid) >= fs.TotalInodes {
		return nil, fmt.Errorf("%w: nid %d (total %d)", ErrNotFound, nid, fs.TotalInodes)
	}

	blk, err := d.Read(fs.InodeBlk(nid))
	if err != nil {
		return nil, fmt.Errorf("inode: read table block for nid %d: %w", nid, err)
	}

	off := (uint64(nid) % common.INODEBLK) * common.INODESZ
	raw := ondisk.DecodeInode(blk[off : off+common.INODESZ])

	ino := &Inode{
		d:          d,
		fs:         fs,
		Nid:        nid,
		Mode:       raw.Mode,
		Nlink:      uint64(raw.Nlink),
		Uid:        uint64(raw.Uid),
		Gid:        uint64(raw.Gid),
		Size:       uint64(raw.Size),
		XattrStart: raw.XattrStart,
		XattrCount: raw.XattrCount,
		Data:       raw.Data,
	}
	util.DPrintf(5, "inode %d: mode 0x%x size %d\n", nid, ino.Mode, ino.Size)
	return ino, nil
}

// Type decodes the mode's type bits.
func (ino *Inode) Type() ondisk.FileType {
	return ondisk.ModeType(ino.Mode)
}

// blkAddr returns the absolute block address holding byte pos, or
// ok=false for a hole.
func (ino *Inode) blkAddr(pos uint64) (common.Bnum, bool, error) {
	slot := pos / disk.BlockSize
	if slot >= common.NDATABLKS {
		return 0, false, fmt.Errorf("%w: byte %d", ErrOutOfRange, pos)
	}
	addr, ok := ino.Data[slot].Addr()
	return addr, ok, nil
}

// Pread fills buf with the block of the inode's byte stream that
// contains offset off. Holes and blocks entirely past the inode size
// read as zeroes.
func (ino *Inode) Pread(buf disk.Block, off uint64) error {
	if uint64(len(buf)) != disk.BlockSize {
		return fmt.Errorf("inode: buffer is not block-sized (%d bytes)", len(buf))
	}
	addr, ok, err := ino.blkAddr(off)
	if err != nil {
		return err
	}
	if !ok || off >= util.RoundUp(ino.Size, disk.BlockSize)*disk.BlockSize {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	if err := ino.d.ReadTo(addr, buf); err != nil {
		return fmt.Errorf("inode: read block %d of inode %d: %w",
			off/disk.BlockSize, ino.Nid, err)
	}
	return nil
}

// HasAttrBlock reports whether the inode has an attribute block
// allocated. Timestamps live there even when XattrCount is zero.
func (ino *Inode) HasAttrBlock() bool {
	return !ino.XattrStart.IsHole()
}

// AttrBlock reads the inode's attribute block. ok=false means no
// attribute block is allocated.
func (ino *Inode) AttrBlock() (disk.Block, bool, error) {
	rel, ok := ino.XattrStart.Addr()
	if !ok {
		return nil, false, nil
	}
	blk, err := ino.d.Read(ino.fs.DataBlk(rel))
	if err != nil {
		return nil, false, fmt.Errorf("inode: read xattr block of inode %d: %w", ino.Nid, err)
	}
	return blk, true, nil
}
