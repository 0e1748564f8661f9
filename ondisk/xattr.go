package ondisk

import (
	"github.com/tchajed/marshal"
)

// Timestamps is the 32-byte header of an inode's attribute block,
// present whenever the block is allocated, even with zero attribute
// entries. Times are 64-bit epoch seconds.
type Timestamps struct {
	Atime uint64
	Mtime uint64
	Ctime uint64
}

func (ts *Timestamps) Encode() []byte {
	enc := marshal.NewEnc(TimestampsSize)
	enc.PutInt(ts.Atime)
	enc.PutInt(ts.Mtime)
	enc.PutInt(ts.Ctime)
	return enc.Finish()
}

func DecodeTimestamps(b []byte) *Timestamps {
	dec := marshal.NewDec(b[:TimestampsSize])
	ts := &Timestamps{}
	ts.Atime = dec.GetInt()
	ts.Mtime = dec.GetInt()
	ts.Ctime = dec.GetInt()
	return ts
}

// XattrEntry is one fixed-size attribute slot. Slots with Valid == 0
// are skipped when scanning.
type XattrEntry struct {
	Valid    uint8
	Type     uint8
	NameLen  uint8
	ValueLen uint8
	Name     [XattrMaxName]byte
	Value    [XattrMaxValue]byte
}

func (xe *XattrEntry) Encode() []byte {
	b := make([]byte, XattrEntrySize)
	b[0] = xe.Valid
	b[1] = xe.Type
	b[2] = xe.NameLen
	b[3] = xe.ValueLen
	copy(b[4:20], xe.Name[:])
	copy(b[20:52], xe.Value[:])
	return b
}

func DecodeXattrEntry(b []byte) *XattrEntry {
	_ = b[XattrEntrySize-1]
	xe := &XattrEntry{}
	xe.Valid = b[0]
	xe.Type = b[1]
	xe.NameLen = b[2]
	xe.ValueLen = b[3]
	copy(xe.Name[:], b[4:20])
	copy(xe.Value[:], b[20:52])
	return xe
}
