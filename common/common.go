package common

import (
	"github.com/numbfs/numbfs-tools/disk"
)

const (
	// NBITBLOCK is the number of allocation bits covered by one bitmap
	// block.
	NBITBLOCK uint64 = disk.BlockSize * 8

	INODESZ  uint64 = 64 // on-disk size
	INODEBLK uint64 = disk.BlockSize / INODESZ

	// NDATABLKS is the number of direct data-block slots in an inode.
	NDATABLKS uint64 = 10

	MAXNAMELEN uint64 = 60
)

type Inum uint64
type Bnum = uint64

const (
	ROOTINUM Inum = 0
)
