// Package xattr decodes an inode's attribute block: the timestamp
// header followed by packed extended-attribute slots, rendered as
// fixed-width text.
package xattr

import (
	"strings"

	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/ondisk"
)

// Entry is one valid attribute, with name and value already padded to
// their fixed display widths (16 and 32 characters).
type Entry struct {
	Type  uint8
	Name  string
	Value string
}

// ReadTimes decodes the timestamp header of an attribute block.
func ReadTimes(blk disk.Block) *ondisk.Timestamps {
	return ondisk.DecodeTimestamps(blk)
}

// pad left-justifies up to n bytes of b in a width-wide field.
// Printing is bounded by the field width, so no terminator is needed.
func pad(b []byte, n uint8, width uint64) string {
	ln := uint64(n)
	if ln > width {
		ln = width
	}
	return string(b[:ln]) + strings.Repeat(" ", int(width-ln))
}

// Entries scans the attribute slots of an attribute block in storage
// order, skipping invalid slots.
func Entries(blk disk.Block) []Entry {
	var out []Entry
	for i := uint64(0); i < ondisk.XattrMaxEntries; i++ {
		off := ondisk.XattrEntryStart + i*ondisk.XattrEntrySize
		xe := ondisk.DecodeXattrEntry(blk[off:])
		if xe.Valid == 0 {
			continue
		}
		out = append(out, Entry{
			Type:  xe.Type,
			Name:  pad(xe.Name[:], xe.NameLen, ondisk.XattrMaxName),
			Value: pad(xe.Value[:], xe.ValueLen, ondisk.XattrMaxValue),
		})
	}
	return out
}
