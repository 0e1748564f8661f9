package fstest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numbfs/numbfs-tools/bitmap"
	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/ondisk"
	"github.com/numbfs/numbfs-tools/super"
)

func TestFormatLayout(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(4096)
	b, err := Format(d, 512)
	require.NoError(t, err)

	fs, err := super.Load(d)
	require.NoError(t, err)
	assert.Equal(b.Fs, fs)

	// 512 inodes: one bitmap block, 64 table blocks
	assert.Equal(uint64(2), fs.IBitmapStart)
	assert.Equal(uint64(3), fs.InodeStart)
	assert.Equal(uint64(67), fs.BBitmapStart)
}

// a freshly formatted image must pass its own audits: the bitmaps
// agree with the superblock counters
func TestFormatConsistent(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(4096)
	b, err := Format(d, 512)
	require.NoError(t, err)

	u, err := bitmap.Audit(d, b.Fs, bitmap.Inodes)
	assert.NoError(err)
	assert.Equal(uint64(1), u.Used, "only the root inode")

	u, err = bitmap.Audit(d, b.Fs, bitmap.Blocks)
	assert.NoError(err)
	assert.Equal(uint64(2), u.Used, "root dir block and root attr block")
}

func TestBuilderStaysConsistent(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(4096)
	b, err := Format(d, 512)
	require.NoError(t, err)

	nid, err := b.NewInode(ondisk.ModeRegular|0o644, 0, 0)
	require.NoError(t, err)
	require.NoError(t, b.WriteFileBlock(nid, 0, []byte("data")))
	require.NoError(t, b.AddXattr(nid, ondisk.XattrIndexUser, "user.x", "1"))
	require.NoError(t, b.AddDirent(0, "file", nid, ondisk.DtRegular))

	for _, zone := range []bitmap.Zone{bitmap.Inodes, bitmap.Blocks} {
		_, err := bitmap.Audit(d, b.Fs, zone)
		assert.NoError(err, "audit of %s after mutations", zone)
	}
}

func TestCorrupt(t *testing.T) {
	d := disk.NewMemDisk(4096)
	b, err := Format(d, 512)
	require.NoError(t, err)

	require.NoError(t, b.Corrupt(func(sb *ondisk.Superblock) {
		sb.FreeInodes = sb.TotalInodes
	}))

	fs, err := super.Load(d)
	require.NoError(t, err)
	_, err = bitmap.Audit(d, fs, bitmap.Inodes)
	assert.Error(t, err)
}
