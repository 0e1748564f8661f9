// numbfs-fsck reports superblock, bitmap-usage, inode, directory, and
// extended-attribute information from a numbfs image without
// modifying it.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/numbfs/numbfs-tools/disk"
	"github.com/numbfs/numbfs-tools/fsck"
)

func usage(w io.Writer) {
	fmt.Fprintf(w,
		"Usage: numbfs-fsck [OPTIONS] TARGET\n"+
			"Get disk statistics.\n"+
			"\n"+
			"General options:\n"+
			" --help                display this help information and exit\n"+
			" --inodes|-i           display inode usage\n"+
			" --blocks|-b           display block usage\n"+
			" --nid=X               display the inode information of inode@nid\n")
}

func main() {
	var (
		help       = flag.Bool("help", false, "display this help information and exit")
		showInodes = flag.Bool("inodes", false, "display inode usage")
		showBlocks = flag.Bool("blocks", false, "display block usage")
		nid        = flag.Int64("nid", -1, "display the inode information of inode@nid")
	)
	flag.BoolVar(showInodes, "i", false, "display inode usage")
	flag.BoolVar(showBlocks, "b", false, "display block usage")
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	if *help {
		usage(os.Stdout)
		return
	}
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "missing block device!\n")
		usage(os.Stderr)
		os.Exit(1)
	}

	d, err := disk.OpenFileDisk(flag.Arg(0))
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
	defer d.Close()

	opts := fsck.Options{
		ShowInodes: *showInodes,
		ShowBlocks: *showBlocks,
		Nid:        *nid,
	}
	if err := fsck.Run(d, opts, os.Stdout); err != nil {
		os.Exit(1)
	}
}
