package disk

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDisk(t *testing.T) {
	assert := assert.New(t)
	d := NewMemDisk(10)

	sz, err := d.Size()
	assert.NoError(err)
	assert.Equal(uint64(10), sz)

	blk := make(Block, BlockSize)
	blk[0] = 0xAB
	blk[BlockSize-1] = 0xCD
	assert.NoError(d.Write(3, blk))

	got, err := d.Read(3)
	assert.NoError(err)
	assert.Equal(blk, got)

	// unwritten blocks read as zeroes
	got, err = d.Read(4)
	assert.NoError(err)
	assert.Equal(make(Block, BlockSize), got)
}

func TestMemDiskBounds(t *testing.T) {
	assert := assert.New(t)
	d := NewMemDisk(2)
	_, err := d.Read(2)
	assert.Error(err)
	assert.Error(d.Write(2, make(Block, BlockSize)))
	assert.Error(d.Write(0, make(Block, 10)), "not block-sized")
}

func TestFileDisk(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "disk.img")

	d, err := NewFileDisk(path, 16)
	require.NoError(t, err)

	blk := make(Block, BlockSize)
	for i := range blk {
		blk[i] = byte(i % 10)
	}
	assert.NoError(d.Write(7, blk))
	got, err := d.Read(7)
	assert.NoError(err)
	assert.Equal(blk, got)
	assert.NoError(d.Close())

	// reopen read-only; sized from the file, writes rejected
	rd, err := OpenFileDisk(path)
	require.NoError(t, err)
	defer rd.Close()

	sz, err := rd.Size()
	assert.NoError(err)
	assert.Equal(uint64(16), sz)

	got, err = rd.Read(7)
	assert.NoError(err)
	assert.Equal(blk, got)
	assert.Error(rd.Write(7, blk))
}
