// Package fsck drives the numbfs inspection report: superblock
// summary, bitmap usage, and per-inode detail, written in order to
// one writer.
//
// A failed section is logged and recorded but does not stop later,
// independent sections; output already written is retained.
package fsck

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/numbfs/numbfs-tools/bitmap"
	"github.com/numbfs/numbfs-tools/common"
	"github.com/numbfs/numbfs-tools/dir"
	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/inode"
	"github.com/numbfs/numbfs-tools/ondisk"
	"github.com/numbfs/numbfs-tools/super"
	"github.com/numbfs/numbfs-tools/xattr"
)

// Options selects the report sections. The superblock summary is
// always shown; Nid < 0 disables the single-inode detail.
type Options struct {
	ShowInodes bool
	ShowBlocks bool
	Nid        int64
}

// Run produces the report on w. It returns the first section error;
// later independent sections still run after a failure.
func Run(d disk.Disk, opts Options, w io.Writer) error {
	fs, err := super.Load(d)
	if err != nil {
		logrus.WithField("section", "superblock").Error(err)
		return err
	}

	fmt.Fprintf(w, "Superblock Information\n")
	fmt.Fprintf(w, "    inode bitmap start:         %d\n", fs.IBitmapStart)
	fmt.Fprintf(w, "    inode zone start:           %d\n", fs.InodeStart)
	fmt.Fprintf(w, "    block bitmap start:         %d\n", fs.BBitmapStart)
	fmt.Fprintf(w, "    data zone start:            %d\n", fs.DataStart)
	fmt.Fprintf(w, "    free inodes:                %d\n", fs.FreeInodes)
	fmt.Fprintf(w, "    total inodes:               %d\n", fs.TotalInodes)
	fmt.Fprintf(w, "    total free blocks:          %d\n", fs.FreeBlocks)
	fmt.Fprintf(w, "    total data blocks:          %d\n", fs.DataBlocks)

	var firstErr error
	record := func(section string, err error) {
		logrus.WithField("section", section).Error(err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if opts.ShowInodes {
		if err := usageSection(d, fs, bitmap.Inodes, w); err != nil {
			record("inode usage", err)
		}
	}
	if opts.ShowBlocks {
		if err := usageSection(d, fs, bitmap.Blocks, w); err != nil {
			record("block usage", err)
		}
	}
	if opts.Nid >= 0 {
		if err := inodeSection(d, fs, common.Inum(opts.Nid), w); err != nil {
			record("inode detail", err)
		}
	}
	return firstErr
}

// usageSection audits one bitmap zone. A counter mismatch is a
// finding: the counted usage is still printed, the mismatch is
// surfaced, and the run continues.
func usageSection(d disk.Disk, fs *super.FsInfo, zone bitmap.Zone, w io.Writer) error {
	u, err := bitmap.Audit(d, fs, zone)
	var mm *bitmap.MismatchError
	if err != nil && !errors.As(err, &mm) {
		return err
	}
	fmt.Fprintf(w, "    %s usage:               %.2f%%\n", zone, u.Percent())
	if mm != nil {
		fmt.Fprintf(w, "    [corrupted] %v\n", mm)
		return mm
	}
	return nil
}

func direntType(t ondisk.FileType) string {
	switch t {
	case ondisk.TypeDir:
		return "DIR    "
	case ondisk.TypeSymlink:
		return "SYMLINK"
	default:
		return "REGULAR"
	}
}

func timeToDate(epoch uint64) string {
	return time.Unix(int64(epoch), 0).Format("2006-01-02 15:04:05")
}

// inodeSection prints one inode's metadata, timestamps, attributes,
// and (for directories) its content listing.
func inodeSection(d disk.Disk, fs *super.FsInfo, nid common.Inum, w io.Writer) error {
	ino, err := inode.Get(d, fs, nid)
	if err != nil {
		return err
	}

	attrBlk, hasAttr, err := ino.AttrBlock()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "================================\n")
	fmt.Fprintf(w, "Inode Information\n")
	fmt.Fprintf(w, "    inode number:               %d\n", ino.Nid)
	fmt.Fprintf(w, "    inode type:                 %s\n", ino.Type())
	fmt.Fprintf(w, "    link count:                 %d\n", ino.Nlink)
	fmt.Fprintf(w, "    inode uid:                  %d\n", ino.Uid)
	fmt.Fprintf(w, "    inode gid:                  %d\n", ino.Gid)
	if hasAttr {
		ts := xattr.ReadTimes(attrBlk)
		fmt.Fprintf(w, "    inode atime:                %s\n", timeToDate(ts.Atime))
		fmt.Fprintf(w, "    inode mtime:                %s\n", timeToDate(ts.Mtime))
		fmt.Fprintf(w, "    inode ctime:                %s\n", timeToDate(ts.Ctime))
	}
	fmt.Fprintf(w, "    inode size:                 %d\n", ino.Size)

	if ino.XattrCount > 0 && hasAttr {
		fmt.Fprintf(w, "    -------\n")
		fmt.Fprintf(w, "    xattrs (count: %d)\n", ino.XattrCount)
		for _, e := range xattr.Entries(attrBlk) {
			fmt.Fprintf(w, "        type: %02d, name: %s, value: %s\n",
				e.Type, e.Name, e.Value)
		}
		fmt.Fprintf(w, "    -------\n")
	}
	fmt.Fprintf(w, "\n")

	if ino.Type() == ondisk.TypeDir {
		fmt.Fprintf(w, "    DIR CONTENT\n")
		cur := dir.NewCursor(ino)
		for {
			de, ok := cur.Next()
			if !ok {
				break
			}
			fmt.Fprintf(w, "       INODE: %05d, TYPE: %s, NAMELEN: %02d NAME: %s\n",
				de.Ino, direntType(de.FileType()), de.NameLen, de.FileName())
		}
		if err := cur.Err(); err != nil {
			fmt.Fprintf(w, "    [corrupted] %v\n", err)
			return err
		}
	}
	return nil
}
