package ondisk

import (
	"github.com/tchajed/marshal"
)

// Superblock is the 128-byte on-disk superblock. All fields are
// 32-bit; the remainder of the record is reserved.
type Superblock struct {
	Magic   uint32
	Feature uint32
	// zone start block addresses
	IBitmapStart uint32
	InodeStart   uint32
	BBitmapStart uint32
	DataStart    uint32
	TotalInodes  uint32
	FreeInodes   uint32
	DataBlocks   uint32
	FreeBlocks   uint32
}

func (sb *Superblock) Encode() []byte {
	enc := marshal.NewEnc(SuperblockSize)
	enc.PutInt32(sb.Magic)
	enc.PutInt32(sb.Feature)
	enc.PutInt32(sb.IBitmapStart)
	enc.PutInt32(sb.InodeStart)
	enc.PutInt32(sb.BBitmapStart)
	enc.PutInt32(sb.DataStart)
	enc.PutInt32(sb.TotalInodes)
	enc.PutInt32(sb.FreeInodes)
	enc.PutInt32(sb.DataBlocks)
	enc.PutInt32(sb.FreeBlocks)
	return enc.Finish()
}

func DecodeSuperblock(b []byte) *Superblock {
	dec := marshal.NewDec(b[:SuperblockSize])
	sb := &Superblock{}
	sb.Magic = dec.GetInt32()
	sb.Feature = dec.GetInt32()
	sb.IBitmapStart = dec.GetInt32()
	sb.InodeStart = dec.GetInt32()
	sb.BBitmapStart = dec.GetInt32()
	sb.DataStart = dec.GetInt32()
	sb.TotalInodes = dec.GetInt32()
	sb.FreeInodes = dec.GetInt32()
	sb.DataBlocks = dec.GetInt32()
	sb.FreeBlocks = dec.GetInt32()
	return sb
}
