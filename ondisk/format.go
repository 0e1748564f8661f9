// Package ondisk defines the numbfs on-disk record formats.
//
// Every record has a fixed byte size and every multi-byte integer is
// stored little-endian, independent of the host. Records are
// converted with explicit per-field encode/decode pairs rather than
// by reinterpreting host memory.
package ondisk

import (
	"fmt"

	"github.com/numbfs/numbfs-tools/common"
	"github.com/numbfs/numbfs-tools/disk"
)

const (
	// Magic is the superblock signature ("NUMB").
	Magic uint32 = 0x4E554D42

	// SuperOffset is the byte offset of the superblock; the first
	// block of the device is reserved.
	SuperOffset uint64 = disk.BlockSize

	SuperblockSize uint64 = 128
	InodeSize      uint64 = 64
	DirentSize     uint64 = 64
	TimestampsSize uint64 = 32
	XattrEntrySize uint64 = 52

	// XattrEntryStart is the byte offset of the first attribute slot
	// within an attribute block; the timestamps come first.
	XattrEntryStart uint64 = TimestampsSize

	// XattrMaxEntries is the number of attribute slots in one block.
	XattrMaxEntries uint64 = (disk.BlockSize - TimestampsSize) / XattrEntrySize

	XattrMaxName  uint64 = 16
	XattrMaxValue uint64 = 32
)

// xattr name indexes
const (
	XattrIndexUser    uint8 = 1
	XattrIndexTrusted uint8 = 2
)

// mode bits, POSIX file-type encoding
const (
	ModeTypeMask uint32 = 0xF000
	ModeDir      uint32 = 0x4000
	ModeRegular  uint32 = 0x8000
	ModeSymlink  uint32 = 0xA000
)

// dirent type field values
const (
	DtDir     uint8 = 4
	DtRegular uint8 = 8
	DtSymlink uint8 = 10
)

// FileType is the decoded object type of an inode or dirent.
type FileType int

const (
	TypeRegular FileType = iota
	TypeDir
	TypeSymlink
)

func (t FileType) String() string {
	switch t {
	case TypeDir:
		return "DIR"
	case TypeSymlink:
		return "SYMLINK"
	default:
		return "REGULAR FILE"
	}
}

// ModeType decodes the type bits of an inode mode.
func ModeType(mode uint32) FileType {
	switch mode & ModeTypeMask {
	case ModeDir:
		return TypeDir
	case ModeSymlink:
		return TypeSymlink
	default:
		return TypeRegular
	}
}

// holeRaw is the on-disk hole sentinel, -32 as a 32-bit value.
const holeRaw uint32 = 0xFFFFFFE0

// BlockPtr is one slot of an inode's data-block map: either an
// allocated block address or a hole. The raw sentinel never escapes
// this type.
type BlockPtr uint32

const Hole BlockPtr = BlockPtr(holeRaw)

func (p BlockPtr) IsHole() bool {
	return p == Hole
}

// Addr returns the block address held by p, and false for a hole.
func (p BlockPtr) Addr() (common.Bnum, bool) {
	if p.IsHole() {
		return 0, false
	}
	return common.Bnum(p), true
}

// CheckLayout asserts the exact encoded sizes of all fixed records.
// A mismatch means the codecs no longer match the format and nothing
// else can be trusted.
func CheckLayout() error {
	sizes := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"superblock", uint64(len(new(Superblock).Encode())), SuperblockSize},
		{"inode", uint64(len(new(Inode).Encode())), InodeSize},
		{"dirent", uint64(len(new(Dirent).Encode())), DirentSize},
		{"timestamps", uint64(len(new(Timestamps).Encode())), TimestampsSize},
		{"xattr entry", uint64(len(new(XattrEntry).Encode())), XattrEntrySize},
	}
	for _, s := range sizes {
		if s.got != s.want {
			return fmt.Errorf("ondisk: %s encodes to %d bytes, want %d",
				s.name, s.got, s.want)
		}
	}
	if InodeSize != common.INODESZ {
		return fmt.Errorf("ondisk: inode size disagrees with common.INODESZ")
	}
	return nil
}

func init() {
	if err := CheckLayout(); err != nil {
		panic(err)
	}
}
