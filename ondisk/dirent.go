package ondisk

import (
	"encoding/binary"

	"github.com/numbfs/numbfs-tools/common"
)

// Dirent is the 64-byte on-disk directory entry. Entries are packed
// back to back in a directory inode's byte stream with no alignment
// gaps; a directory's size is a multiple of DirentSize.
type Dirent struct {
	NameLen uint8
	Type    uint8
	Name    [common.MAXNAMELEN]byte
	Ino     uint16
}

func (de *Dirent) Encode() []byte {
	b := make([]byte, DirentSize)
	b[0] = de.NameLen
	b[1] = de.Type
	copy(b[2:62], de.Name[:])
	binary.LittleEndian.PutUint16(b[62:64], de.Ino)
	return b
}

func DecodeDirent(b []byte) *Dirent {
	_ = b[DirentSize-1]
	de := &Dirent{}
	de.NameLen = b[0]
	de.Type = b[1]
	copy(de.Name[:], b[2:62])
	de.Ino = binary.LittleEndian.Uint16(b[62:64])
	return de
}

// FileName returns the entry name. The name buffer is not
// necessarily padded past NameLen, so only NameLen bytes are
// meaningful.
func (de *Dirent) FileName() string {
	n := uint64(de.NameLen)
	if n > common.MAXNAMELEN {
		n = common.MAXNAMELEN
	}
	return string(de.Name[:n])
}

// FileType decodes the dirent type field.
func (de *Dirent) FileType() FileType {
	switch de.Type {
	case DtDir:
		return TypeDir
	case DtSymlink:
		return TypeSymlink
	default:
		return TypeRegular
	}
}
