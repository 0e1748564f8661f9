// Package bitmap audits the inode and block allocation bitmaps.
//
// A bitmap zone is a run of blocks where each set bit marks one inode
// or data block as in use. The audit counts set bits across the whole
// zone and cross-checks the total against the superblock's free/used
// counters; a disagreement is reported, never repaired.
package bitmap

import (
	"fmt"

	"github.com/numbfs/numbfs-tools/common"
	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/super"
	"github.com/numbfs/numbfs-tools/util"
)

// Zone selects which bitmap to audit.
type Zone int

const (
	Inodes Zone = iota
	Blocks
)

func (z Zone) String() string {
	if z == Inodes {
		return "inodes"
	}
	return "blocks"
}

// Usage is the result of one bitmap audit.
type Usage struct {
	Zone  Zone
	Used  uint64 // set bits counted in the bitmap
	Total uint64 // objects in the zone, per the superblock
}

// Percent reports used objects as a percentage of the total.
func (u Usage) Percent() float64 {
	if u.Total == 0 {
		return 0
	}
	return 100.0 * float64(u.Used) / float64(u.Total)
}

// MismatchError reports a bitmap whose population disagrees with the
// superblock counters. The audit result is still meaningful; the
// caller decides whether to continue.
type MismatchError struct {
	Zone     Zone
	Counted  uint64
	Expected uint64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("bitmap: %s bitmap has %d bits set, superblock claims %d used",
		e.Zone, e.Counted, e.Expected)
}

func popCnt(b byte) uint64 {
	var n uint64
	for i := 0; i < 8; i++ {
		n += uint64(b & 1)
		b >>= 1
	}
	return n
}

func countBlock(blk disk.Block) uint64 {
	var n uint64
	for _, b := range blk {
		n += popCnt(b)
	}
	return n
}

// Audit scans zone's bitmap blocks and cross-checks the counted
// population against the superblock. On a counter disagreement the
// returned error is a *MismatchError and Usage still carries the
// counted value.
func Audit(d disk.Disk, fs *super.FsInfo, zone Zone) (Usage, error) {
	var start, end common.Bnum
	var total, free uint64
	if zone == Inodes {
		start, end = fs.InodeBitmap()
		total, free = fs.TotalInodes, fs.FreeInodes
	} else {
		start, end = fs.BlockBitmap()
		total, free = fs.DataBlocks, fs.FreeBlocks
	}

	var cnt uint64
	buf := make(disk.Block, disk.BlockSize)
	for b := start; b < end; b++ {
		if err := d.ReadTo(b, buf); err != nil {
			return Usage{Zone: zone}, fmt.Errorf("bitmap: block %d: %w", b, err)
		}
		cnt += countBlock(buf)
	}
	util.DPrintf(5, "audit %s: %d bits set in blocks [%d, %d)\n", zone, cnt, start, end)

	u := Usage{Zone: zone, Used: cnt, Total: total}
	if expected := total - free; cnt != expected {
		return u, &MismatchError{Zone: zone, Counted: cnt, Expected: expected}
	}
	return u, nil
}
