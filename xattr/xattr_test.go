package xattr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/ondisk"
)

func mkAttrBlock(entries ...*ondisk.XattrEntry) disk.Block {
	blk := make(disk.Block, disk.BlockSize)
	ts := &ondisk.Timestamps{Atime: 100, Mtime: 200, Ctime: 300}
	copy(blk, ts.Encode())
	for i, xe := range entries {
		off := ondisk.XattrEntryStart + uint64(i)*ondisk.XattrEntrySize
		copy(blk[off:], xe.Encode())
	}
	return blk
}

func mkEntry(typ uint8, name, value string) *ondisk.XattrEntry {
	xe := &ondisk.XattrEntry{
		Valid:    1,
		Type:     typ,
		NameLen:  uint8(len(name)),
		ValueLen: uint8(len(value)),
	}
	copy(xe.Name[:], name)
	copy(xe.Value[:], value)
	return xe
}

func TestReadTimes(t *testing.T) {
	blk := mkAttrBlock()
	ts := ReadTimes(blk)
	assert.Equal(t, &ondisk.Timestamps{Atime: 100, Mtime: 200, Ctime: 300}, ts)
}

func TestPaddingExactness(t *testing.T) {
	assert := assert.New(t)
	blk := mkAttrBlock(mkEntry(ondisk.XattrIndexUser, "user.x", "1"))

	out := Entries(blk)
	assert.Len(out, 1)
	e := out[0]
	assert.Equal(ondisk.XattrIndexUser, e.Type)
	assert.Equal(16, len(e.Name), "name field is exactly 16 wide")
	assert.Equal("user.x"+strings.Repeat(" ", 10), e.Name)
	assert.Equal(32, len(e.Value), "value field is exactly 32 wide")
	assert.Equal("1"+strings.Repeat(" ", 31), e.Value)
}

func TestEntriesSkipInvalid(t *testing.T) {
	assert := assert.New(t)
	invalid := mkEntry(ondisk.XattrIndexUser, "dead", "beef")
	invalid.Valid = 0
	blk := mkAttrBlock(
		invalid,
		mkEntry(ondisk.XattrIndexTrusted, "trusted.a", "x"),
		mkEntry(ondisk.XattrIndexUser, "user.b", "y"),
	)

	out := Entries(blk)
	assert.Len(out, 2)
	assert.Equal(ondisk.XattrIndexTrusted, out[0].Type)
	assert.Equal("trusted.a"+strings.Repeat(" ", 7), out[0].Name)
	assert.Equal(ondisk.XattrIndexUser, out[1].Type)
}

func TestEntriesFullBlock(t *testing.T) {
	var es []*ondisk.XattrEntry
	for i := uint64(0); i < ondisk.XattrMaxEntries; i++ {
		es = append(es, mkEntry(ondisk.XattrIndexUser, "user.n", "v"))
	}
	out := Entries(mkAttrBlock(es...))
	assert.Len(t, out, int(ondisk.XattrMaxEntries))
}

func TestEntriesEmpty(t *testing.T) {
	// timestamps alone, zero attribute entries
	out := Entries(mkAttrBlock())
	assert.Empty(t, out)
}
