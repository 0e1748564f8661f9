package fsck

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numbfs/numbfs-tools/bitmap"
	"github.com/numbfs/numbfs-tools/common"
	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/fstest"
	"github.com/numbfs/numbfs-tools/inode"
	"github.com/numbfs/numbfs-tools/ondisk"
	"github.com/numbfs/numbfs-tools/super"
)

func mkImage(t *testing.T) (*disk.MemDisk, *fstest.Builder) {
	d := disk.NewMemDisk(4096)
	b, err := fstest.Format(d, 512)
	require.NoError(t, err)
	return d, b
}

func TestRunSuperblockOnly(t *testing.T) {
	assert := assert.New(t)
	d, _ := mkImage(t)

	var out bytes.Buffer
	require.NoError(t, Run(d, Options{Nid: -1}, &out))

	s := out.String()
	assert.Contains(s, "Superblock Information")
	assert.Contains(s, "inode bitmap start:         2")
	assert.NotContains(s, "usage")
	assert.NotContains(s, "Inode Information")
}

func TestRunFullReport(t *testing.T) {
	assert := assert.New(t)
	d, b := mkImage(t)

	require.NoError(t, b.SetTimes(common.ROOTINUM,
		&ondisk.Timestamps{Atime: 1700000000, Mtime: 1700000000, Ctime: 1700000000}))
	require.NoError(t, b.AddXattr(common.ROOTINUM, ondisk.XattrIndexUser, "user.x", "1"))

	fnid, err := b.NewInode(ondisk.ModeRegular|0o644, 0, 0)
	require.NoError(t, err)
	require.NoError(t, b.AddDirent(common.ROOTINUM, "notes.txt", fnid, ondisk.DtRegular))

	var out bytes.Buffer
	err = Run(d, Options{ShowInodes: true, ShowBlocks: true, Nid: 0}, &out)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(s, "Superblock Information")
	assert.Contains(s, "inodes usage:")
	assert.Contains(s, "blocks usage:")
	assert.Contains(s, "Inode Information")
	assert.Contains(s, "inode type:                 DIR")
	assert.Contains(s, "inode atime:")
	assert.Contains(s, "xattrs (count: 1)")
	assert.Contains(s, "name: user.x")
	assert.Contains(s, "DIR CONTENT")
	assert.Contains(s, "NAME: notes.txt")
	assert.Contains(s, "NAME: .")
}

func TestRunContinuesPastMismatch(t *testing.T) {
	assert := assert.New(t)
	d, b := mkImage(t)

	// claim every inode free while the root bit is set
	require.NoError(t, b.Corrupt(func(sb *ondisk.Superblock) {
		sb.FreeInodes = sb.TotalInodes
	}))

	var out bytes.Buffer
	err := Run(d, Options{ShowInodes: true, ShowBlocks: true, Nid: 0}, &out)

	var mm *bitmap.MismatchError
	assert.True(errors.As(err, &mm), "the mismatch is the run's error")

	s := out.String()
	assert.Contains(s, "[corrupted]")
	assert.Contains(s, "blocks usage:", "later sections still run")
	assert.Contains(s, "Inode Information", "inode detail still runs")
}

func TestRunBadMagic(t *testing.T) {
	d, _ := mkImage(t)
	require.NoError(t, d.Write(ondisk.SuperOffset/disk.BlockSize,
		make(disk.Block, disk.BlockSize)))

	var out bytes.Buffer
	err := Run(d, Options{Nid: -1}, &out)
	assert.True(t, errors.Is(err, super.ErrInvalidMagic))
	assert.Empty(t, out.String(), "nothing is reported off a bad superblock")
}

func TestRunInodeNotFound(t *testing.T) {
	assert := assert.New(t)
	d, b := mkImage(t)

	var out bytes.Buffer
	err := Run(d, Options{Nid: int64(b.Fs.TotalInodes)}, &out)
	assert.True(errors.Is(err, inode.ErrNotFound))
	assert.Contains(out.String(), "Superblock Information",
		"partial output already written is retained")
}

func TestDirentTypeStrings(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("DIR    ", direntType(ondisk.TypeDir))
	assert.Equal("SYMLINK", direntType(ondisk.TypeSymlink))
	assert.Equal("REGULAR", direntType(ondisk.TypeRegular))
}
