package bitmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/super"
)

func TestPopCnt(t *testing.T) {
	assert.Equal(t, uint64(0), popCnt(0))
	assert.Equal(t, uint64(1), popCnt(1))
	assert.Equal(t, uint64(1), popCnt(2))
	assert.Equal(t, uint64(2), popCnt(3))
	assert.Equal(t, uint64(8), popCnt(255))
}

func TestCountBlock(t *testing.T) {
	blk := make(disk.Block, disk.BlockSize)
	assert.Equal(t, uint64(0), countBlock(blk))
	blk[0] = 0xFF
	blk[511] = 0x01
	assert.Equal(t, uint64(9), countBlock(blk))
}

// testFs describes an image whose inode bitmap spans blocks [2, 5)
// and block bitmap spans [5, 6).
func testFs() *super.FsInfo {
	return &super.FsInfo{
		TotalInodes:  3 * 4096, // three full bitmap blocks
		DataBlocks:   4096,
		IBitmapStart: 2,
		InodeStart:   5,
		BBitmapStart: 5,
		DataStart:    6,
	}
}

func setBit(t *testing.T, d disk.Disk, blkno uint64, bit uint64) {
	blk, err := d.Read(blkno)
	require.NoError(t, err)
	blk[bit/8] |= 1 << (bit % 8)
	require.NoError(t, d.Write(blkno, blk))
}

func TestAuditCountsAcrossBlocks(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(8)
	fs := testFs()

	// scatter bits across all three bitmap blocks, including both
	// edges of each block boundary
	bits := []struct{ blk, bit uint64 }{
		{2, 0}, {2, 7}, {2, 4095},
		{3, 0}, {3, 513},
		{4, 9}, {4, 4095},
	}
	for _, b := range bits {
		setBit(t, d, b.blk, b.bit)
	}
	fs.FreeInodes = fs.TotalInodes - uint64(len(bits))

	u, err := Audit(d, fs, Inodes)
	assert.NoError(err)
	assert.Equal(uint64(len(bits)), u.Used)
	assert.Equal(fs.TotalInodes, u.Total)
}

func TestAuditBlocksZone(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(8)
	fs := testFs()

	setBit(t, d, 5, 100)
	setBit(t, d, 5, 101)
	fs.FreeBlocks = fs.DataBlocks - 2

	u, err := Audit(d, fs, Blocks)
	assert.NoError(err)
	assert.Equal(uint64(2), u.Used)
}

func TestAuditMismatch(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(8)
	fs := testFs()

	// superblock claims everything free while one bit is set
	setBit(t, d, 2, 42)
	fs.FreeInodes = fs.TotalInodes
	fs.FreeBlocks = fs.DataBlocks

	u, err := Audit(d, fs, Inodes)
	var mm *MismatchError
	assert.True(errors.As(err, &mm))
	assert.Equal(uint64(1), mm.Counted)
	assert.Equal(uint64(0), mm.Expected)
	assert.Equal(uint64(1), u.Used, "usage still carries the counted value")
}

func TestPercent(t *testing.T) {
	assert := assert.New(t)
	assert.InDelta(25.0, Usage{Used: 1, Total: 4}.Percent(), 1e-9)
	assert.Equal(0.0, Usage{}.Percent())
}
