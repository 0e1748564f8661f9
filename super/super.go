// Package super loads and validates the on-disk superblock into a
// host-endian descriptor. The descriptor is read once at startup and
// is immutable for the rest of the run.
package super

import (
	"errors"
	"fmt"

	"github.com/numbfs/numbfs-tools/common"
	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/ondisk"
	"github.com/numbfs/numbfs-tools/util"
)

var (
	// ErrInvalidMagic means the superblock signature did not match;
	// no other field may be trusted.
	ErrInvalidMagic = errors.New("super: invalid magic")

	// ErrCorrupted means the magic matched but the descriptor
	// violates a structural invariant.
	ErrCorrupted = errors.New("super: corrupted superblock")
)

// FsInfo is the decoded superblock.
type FsInfo struct {
	Feature uint64

	TotalInodes uint64
	FreeInodes  uint64
	DataBlocks  uint64
	FreeBlocks  uint64

	IBitmapStart common.Bnum
	InodeStart   common.Bnum
	BBitmapStart common.Bnum
	DataStart    common.Bnum
}

// Load reads the superblock from the fixed offset and validates it.
func Load(d disk.Disk) (*FsInfo, error) {
	blk, err := d.Read(ondisk.SuperOffset / disk.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("super: read superblock: %w", err)
	}

	sb := ondisk.DecodeSuperblock(blk)
	if sb.Magic != ondisk.Magic {
		return nil, fmt.Errorf("%w: 0x%X", ErrInvalidMagic, sb.Magic)
	}

	fs := &FsInfo{
		Feature:      uint64(sb.Feature),
		TotalInodes:  uint64(sb.TotalInodes),
		FreeInodes:   uint64(sb.FreeInodes),
		DataBlocks:   uint64(sb.DataBlocks),
		FreeBlocks:   uint64(sb.FreeBlocks),
		IBitmapStart: common.Bnum(sb.IBitmapStart),
		InodeStart:   common.Bnum(sb.InodeStart),
		BBitmapStart: common.Bnum(sb.BBitmapStart),
		DataStart:    common.Bnum(sb.DataStart),
	}
	if err := fs.check(); err != nil {
		return nil, err
	}
	util.DPrintf(5, "superblock: %+v\n", fs)
	return fs, nil
}

func (fs *FsInfo) check() error {
	if fs.FreeInodes > fs.TotalInodes {
		return fmt.Errorf("%w: free inodes %d > total inodes %d",
			ErrCorrupted, fs.FreeInodes, fs.TotalInodes)
	}
	if fs.FreeBlocks > fs.DataBlocks {
		return fmt.Errorf("%w: free blocks %d > data blocks %d",
			ErrCorrupted, fs.FreeBlocks, fs.DataBlocks)
	}
	// zone starts must be strictly ordered; the inode table may be
	// empty only in degenerate images, so equality is allowed there
	if !(fs.IBitmapStart < fs.InodeStart &&
		fs.InodeStart <= fs.BBitmapStart &&
		fs.BBitmapStart < fs.DataStart) {
		return fmt.Errorf("%w: bad zone order (ibitmap %d, inodes %d, bbitmap %d, data %d)",
			ErrCorrupted, fs.IBitmapStart, fs.InodeStart, fs.BBitmapStart, fs.DataStart)
	}
	return nil
}

// DataBlk translates a data-zone-relative block number to an
// absolute block address.
func (fs *FsInfo) DataBlk(b common.Bnum) common.Bnum {
	return fs.DataStart + b
}

// InodeBlk returns the inode-table block holding inode nid.
func (fs *FsInfo) InodeBlk(nid common.Inum) common.Bnum {
	return fs.InodeStart + uint64(nid)/common.INODEBLK
}

// InodeBitmap returns the inode bitmap zone as [start, end).
func (fs *FsInfo) InodeBitmap() (common.Bnum, common.Bnum) {
	return fs.IBitmapStart, fs.InodeStart
}

// BlockBitmap returns the block bitmap zone as [start, end).
func (fs *FsInfo) BlockBitmap() (common.Bnum, common.Bnum) {
	return fs.BBitmapStart, fs.DataStart
}
