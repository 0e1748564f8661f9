package ondisk

import (
	"encoding/binary"

	"github.com/numbfs/numbfs-tools/common"
)

// Inode is the 64-byte on-disk inode record.
//
// XattrStart is a data-zone-relative block pointer; a hole means the
// inode has no attribute block. Data holds absolute block addresses.
type Inode struct {
	Ino        uint16
	Nlink      uint16
	Uid        uint16
	Gid        uint16
	Mode       uint32
	Size       uint32
	XattrStart BlockPtr
	XattrCount uint8
	Data       [common.NDATABLKS]BlockPtr
}

// The mixed 8/16/32-bit fields are laid down with explicit offsets;
// marshal only speaks 32- and 64-bit integers.
func (ino *Inode) Encode() []byte {
	b := make([]byte, InodeSize)
	binary.LittleEndian.PutUint16(b[0:2], ino.Ino)
	binary.LittleEndian.PutUint16(b[2:4], ino.Nlink)
	binary.LittleEndian.PutUint16(b[4:6], ino.Uid)
	binary.LittleEndian.PutUint16(b[6:8], ino.Gid)
	binary.LittleEndian.PutUint32(b[8:12], ino.Mode)
	binary.LittleEndian.PutUint32(b[12:16], ino.Size)
	binary.LittleEndian.PutUint32(b[16:20], uint32(ino.XattrStart))
	b[20] = ino.XattrCount
	// b[21:24] is padding
	for i := uint64(0); i < common.NDATABLKS; i++ {
		binary.LittleEndian.PutUint32(b[24+4*i:28+4*i], uint32(ino.Data[i]))
	}
	return b
}

func DecodeInode(b []byte) *Inode {
	_ = b[InodeSize-1]
	ino := &Inode{}
	ino.Ino = binary.LittleEndian.Uint16(b[0:2])
	ino.Nlink = binary.LittleEndian.Uint16(b[2:4])
	ino.Uid = binary.LittleEndian.Uint16(b[4:6])
	ino.Gid = binary.LittleEndian.Uint16(b[6:8])
	ino.Mode = binary.LittleEndian.Uint32(b[8:12])
	ino.Size = binary.LittleEndian.Uint32(b[12:16])
	ino.XattrStart = BlockPtr(binary.LittleEndian.Uint32(b[16:20]))
	ino.XattrCount = b[20]
	for i := uint64(0); i < common.NDATABLKS; i++ {
		ino.Data[i] = BlockPtr(binary.LittleEndian.Uint32(b[24+4*i : 28+4*i]))
	}
	return ino
}

// NewInode returns an inode with an empty data map, the state mkfs
// leaves every unused inode in.
func NewInode() *Inode {
	ino := &Inode{XattrStart: Hole}
	for i := range ino.Data {
		ino.Data[i] = Hole
	}
	return ino
}

// Type decodes the mode's type bits.
func (ino *Inode) Type() FileType {
	return ModeType(ino.Mode)
}
