// Package fstest formats in-memory numbfs images for tests.
//
// The layout matches mkfs:
//
//	| reserved | superblock | inode bitmap | inodes | block bitmap | data |
//
// The shipped tool never writes; only tests use this package.
package fstest

import (
	"errors"
	"fmt"

	"github.com/numbfs/numbfs-tools/common"
	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/ondisk"
	"github.com/numbfs/numbfs-tools/super"
	"github.com/numbfs/numbfs-tools/util"
)

// Builder mutates a formatted image. The superblock copy is held in
// memory and written back by Flush.
type Builder struct {
	D  disk.Disk
	Fs *super.FsInfo

	sb *ondisk.Superblock
}

// Format lays out an empty filesystem with numInodes inodes on d,
// creates the root directory, and returns a Builder for the image.
func Format(d disk.Disk, numInodes uint64) (*Builder, error) {
	totalBlocks, err := d.Size()
	if err != nil {
		return nil, err
	}

	sb := &ondisk.Superblock{
		Magic:       ondisk.Magic,
		TotalInodes: uint32(numInodes),
		FreeInodes:  uint32(numInodes),
	}
	sb.IBitmapStart = 2
	sb.InodeStart = sb.IBitmapStart +
		uint32(util.RoundUp(util.RoundUp(numInodes, 8), disk.BlockSize))
	sb.BBitmapStart = sb.InodeStart +
		uint32(util.RoundUp(numInodes*common.INODESZ, disk.BlockSize))

	remain := totalBlocks - uint64(sb.BBitmapStart) - 1
	dataBlocks := remain - util.RoundUp(util.RoundUp(remain, 8), disk.BlockSize)
	sb.DataBlocks = uint32(dataBlocks)
	sb.FreeBlocks = uint32(dataBlocks)
	sb.DataStart = sb.BBitmapStart +
		uint32(util.RoundUp(util.RoundUp(dataBlocks, 8), disk.BlockSize))

	// clear the bitmaps and the inode table
	zero := make(disk.Block, disk.BlockSize)
	for i := uint64(sb.IBitmapStart); i < uint64(sb.DataStart); i++ {
		if err := d.Write(i, zero); err != nil {
			return nil, err
		}
	}

	// every inode starts with a data map full of holes
	empty := ondisk.NewInode().Encode()
	tblk := make(disk.Block, disk.BlockSize)
	for j := uint64(0); j < common.INODEBLK; j++ {
		copy(tblk[j*common.INODESZ:], empty)
	}
	for i := uint64(sb.InodeStart); i < uint64(sb.BBitmapStart); i++ {
		if err := d.Write(i, tblk); err != nil {
			return nil, err
		}
	}

	b := &Builder{
		D:  d,
		sb: sb,
		Fs: &super.FsInfo{
			TotalInodes:  numInodes,
			FreeInodes:   numInodes,
			DataBlocks:   dataBlocks,
			FreeBlocks:   dataBlocks,
			IBitmapStart: common.Bnum(sb.IBitmapStart),
			InodeStart:   common.Bnum(sb.InodeStart),
			BBitmapStart: common.Bnum(sb.BBitmapStart),
			DataStart:    common.Bnum(sb.DataStart),
		},
	}

	if err := b.makeRoot(); err != nil {
		return nil, err
	}
	if err := b.Flush(); err != nil {
		return nil, err
	}
	return b, nil
}

// makeRoot creates inode 0 as an empty directory with "." and ".."
// entries and an attribute block holding zeroed timestamps.
func (b *Builder) makeRoot() error {
	nid, err := b.NewInode(ondisk.ModeDir, 0, 0)
	if err != nil {
		return err
	}
	if nid != common.ROOTINUM {
		return fmt.Errorf("fstest: root allocated as inode %d", nid)
	}
	if err := b.AddDirent(nid, "..", nid, ondisk.DtDir); err != nil {
		return err
	}
	if err := b.AddDirent(nid, ".", nid, ondisk.DtDir); err != nil {
		return err
	}
	ino, err := b.readInode(nid)
	if err != nil {
		return err
	}
	ino.Nlink = 2
	if err := b.writeInode(nid, ino); err != nil {
		return err
	}
	return b.EnsureAttrBlock(nid)
}

// Flush rewrites the superblock from the in-memory copy.
func (b *Builder) Flush() error {
	b.sb.FreeInodes = uint32(b.Fs.FreeInodes)
	b.sb.FreeBlocks = uint32(b.Fs.FreeBlocks)
	blk := make(disk.Block, disk.BlockSize)
	copy(blk, b.sb.Encode())
	return b.D.Write(ondisk.SuperOffset/disk.BlockSize, blk)
}

// Corrupt applies f to the in-memory superblock and writes it back,
// bypassing counter maintenance. Tests use it to plant
// inconsistencies.
func (b *Builder) Corrupt(f func(sb *ondisk.Superblock)) error {
	f(b.sb)
	blk := make(disk.Block, disk.BlockSize)
	copy(blk, b.sb.Encode())
	return b.D.Write(ondisk.SuperOffset/disk.BlockSize, blk)
}

// bitmap addressing, one bit per object
func bmapBlk(start common.Bnum, n uint64) common.Bnum {
	return start + n/common.NBITBLOCK
}

func bmapByte(n uint64) uint64 {
	return (n % common.NBITBLOCK) / 8
}

func bmapBit(n uint64) uint64 {
	return n % 8
}

// allocBit finds, sets, and returns the first clear bit among the
// first total bits of the bitmap starting at start.
func (b *Builder) allocBit(start common.Bnum, total uint64) (uint64, error) {
	buf := make(disk.Block, disk.BlockSize)
	for n := uint64(0); n < total; n++ {
		if n%common.NBITBLOCK == 0 {
			if err := b.D.ReadTo(bmapBlk(start, n), buf); err != nil {
				return 0, err
			}
		}
		byteIdx, bit := bmapByte(n), bmapBit(n)
		if buf[byteIdx]&(1<<bit) == 0 {
			buf[byteIdx] |= 1 << bit
			return n, b.D.Write(bmapBlk(start, n), buf)
		}
	}
	return 0, errors.New("fstest: bitmap full")
}

// NewInode allocates an inode number and initializes its record.
func (b *Builder) NewInode(mode uint32, uid, gid uint16) (common.Inum, error) {
	n, err := b.allocBit(b.Fs.IBitmapStart, b.Fs.TotalInodes)
	if err != nil {
		return 0, err
	}
	b.Fs.FreeInodes--

	ino := ondisk.NewInode()
	ino.Ino = uint16(n)
	ino.Mode = mode
	ino.Uid = uid
	ino.Gid = gid
	ino.Nlink = 1
	if err := b.writeInode(common.Inum(n), ino); err != nil {
		return 0, err
	}
	return common.Inum(n), b.Flush()
}

// AllocBlock allocates a data block and returns its data-zone-relative
// number.
func (b *Builder) AllocBlock() (uint64, error) {
	n, err := b.allocBit(b.Fs.BBitmapStart, b.Fs.DataBlocks)
	if err != nil {
		return 0, err
	}
	b.Fs.FreeBlocks--
	return n, b.Flush()
}

func (b *Builder) readInode(nid common.Inum) (*ondisk.Inode, error) {
	blk, err := b.D.Read(b.Fs.InodeBlk(nid))
	if err != nil {
		return nil, err
	}
	off := (uint64(nid) % common.INODEBLK) * common.INODESZ
	return ondisk.DecodeInode(blk[off : off+common.INODESZ]), nil
}

func (b *Builder) writeInode(nid common.Inum, ino *ondisk.Inode) error {
	blkno := b.Fs.InodeBlk(nid)
	blk, err := b.D.Read(blkno)
	if err != nil {
		return err
	}
	off := (uint64(nid) % common.INODEBLK) * common.INODESZ
	copy(blk[off:off+common.INODESZ], ino.Encode())
	return b.D.Write(blkno, blk)
}

// ensureDataBlock makes sure the slot covering byte pos is allocated,
// returning its absolute address.
func (b *Builder) ensureDataBlock(ino *ondisk.Inode, pos uint64) (common.Bnum, error) {
	slot := pos / disk.BlockSize
	if slot >= common.NDATABLKS {
		return 0, fmt.Errorf("fstest: byte %d is beyond the direct map", pos)
	}
	if addr, ok := ino.Data[slot].Addr(); ok {
		return addr, nil
	}
	rel, err := b.AllocBlock()
	if err != nil {
		return 0, err
	}
	abs := b.Fs.DataBlk(rel)
	ino.Data[slot] = ondisk.BlockPtr(abs)
	return abs, nil
}

// AddDirent appends a directory entry to directory dnid, allocating a
// data block when the entry starts a new one.
func (b *Builder) AddDirent(dnid common.Inum, name string, target common.Inum, typ uint8) error {
	if uint64(len(name)) > common.MAXNAMELEN {
		return fmt.Errorf("fstest: name %q too long", name)
	}
	ino, err := b.readInode(dnid)
	if err != nil {
		return err
	}

	off := uint64(ino.Size)
	addr, err := b.ensureDataBlock(ino, off)
	if err != nil {
		return err
	}
	blk, err := b.D.Read(addr)
	if err != nil {
		return err
	}

	de := &ondisk.Dirent{
		NameLen: uint8(len(name)),
		Type:    typ,
		Ino:     uint16(target),
	}
	copy(de.Name[:], name)
	copy(blk[off%disk.BlockSize:], de.Encode())
	if err := b.D.Write(addr, blk); err != nil {
		return err
	}

	ino.Size = uint32(off + ondisk.DirentSize)
	return b.writeInode(dnid, ino)
}

// WriteFileBlock writes one block of file content at block index idx,
// extending the size over any holes as pwrite does.
func (b *Builder) WriteFileBlock(nid common.Inum, idx uint64, data []byte) error {
	ino, err := b.readInode(nid)
	if err != nil {
		return err
	}
	addr, err := b.ensureDataBlock(ino, idx*disk.BlockSize)
	if err != nil {
		return err
	}
	blk := make(disk.Block, disk.BlockSize)
	copy(blk, data)
	if err := b.D.Write(addr, blk); err != nil {
		return err
	}
	if end := uint32((idx + 1) * disk.BlockSize); ino.Size < end {
		ino.Size = end
	}
	return b.writeInode(nid, ino)
}

// SetSize overrides an inode's size field. Tests use it to construct
// inconsistent directories.
func (b *Builder) SetSize(nid common.Inum, size uint32) error {
	ino, err := b.readInode(nid)
	if err != nil {
		return err
	}
	ino.Size = size
	return b.writeInode(nid, ino)
}

// EnsureAttrBlock allocates the inode's attribute block if it has
// none, with zeroed timestamps and no entries.
func (b *Builder) EnsureAttrBlock(nid common.Inum) error {
	ino, err := b.readInode(nid)
	if err != nil {
		return err
	}
	if !ino.XattrStart.IsHole() {
		return nil
	}
	rel, err := b.AllocBlock()
	if err != nil {
		return err
	}
	ino.XattrStart = ondisk.BlockPtr(rel)
	return b.writeInode(nid, ino)
}

// SetTimes writes the timestamp header of nid's attribute block,
// allocating the block if needed.
func (b *Builder) SetTimes(nid common.Inum, ts *ondisk.Timestamps) error {
	if err := b.EnsureAttrBlock(nid); err != nil {
		return err
	}
	ino, err := b.readInode(nid)
	if err != nil {
		return err
	}
	rel, _ := ino.XattrStart.Addr()
	abs := b.Fs.DataBlk(rel)
	blk, err := b.D.Read(abs)
	if err != nil {
		return err
	}
	copy(blk[:ondisk.TimestampsSize], ts.Encode())
	return b.D.Write(abs, blk)
}

// AddXattr stores one extended attribute in the first free slot of
// nid's attribute block.
func (b *Builder) AddXattr(nid common.Inum, typ uint8, name, value string) error {
	if uint64(len(name)) > ondisk.XattrMaxName || uint64(len(value)) > ondisk.XattrMaxValue {
		return fmt.Errorf("fstest: xattr %q too large", name)
	}
	if err := b.EnsureAttrBlock(nid); err != nil {
		return err
	}
	ino, err := b.readInode(nid)
	if err != nil {
		return err
	}
	rel, _ := ino.XattrStart.Addr()
	abs := b.Fs.DataBlk(rel)
	blk, err := b.D.Read(abs)
	if err != nil {
		return err
	}

	for i := uint64(0); i < ondisk.XattrMaxEntries; i++ {
		off := ondisk.XattrEntryStart + i*ondisk.XattrEntrySize
		if blk[off] != 0 {
			continue
		}
		xe := &ondisk.XattrEntry{
			Valid:    1,
			Type:     typ,
			NameLen:  uint8(len(name)),
			ValueLen: uint8(len(value)),
		}
		copy(xe.Name[:], name)
		copy(xe.Value[:], value)
		copy(blk[off:], xe.Encode())
		if err := b.D.Write(abs, blk); err != nil {
			return err
		}
		ino.XattrCount++
		return b.writeInode(nid, ino)
	}
	return errors.New("fstest: attribute block full")
}
