// Package fshelp implements the default PathResolver the facade
// consumes (spec §4.12, §6): path tokenization, "."/".." folding
// (the latter handled implicitly, since the Directory Iterator yields
// real ".." records pointing at the on-disk parent), and
// symlink-depth-limited resolution.
package fshelp

import (
	"strings"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/dirent"
	"github.com/bgrewell/udf-kit/pkg/icb"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/symlink"
	"github.com/bgrewell/udf-kit/pkg/udferr"
	"github.com/bgrewell/udf-kit/pkg/volume"
)

// ExpectedType constrains what kind of node FindFile must land on.
type ExpectedType int

const (
	ExpectAny ExpectedType = iota
	ExpectDir
	ExpectReg
)

// MaxSymlinkDepth bounds symlink-chasing during resolution, per the
// PathResolver's symlink-depth-limiting responsibility (spec §1).
const MaxSymlinkDepth = 16

// FindFile walks path from root, descending through directories and
// transparently following symlinks, and returns the leaf node/FE.
func FindFile(rootNode *volume.Node, rootFE *icb.FileEntryLike, path string, expected ExpectedType, opts *option.OpenOptions) (*volume.Node, *icb.FileEntryLike, error) {
	curNode, curFE := rootNode, rootFE
	queue := splitPath(path)
	depth := 0

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if name == "." || name == "" {
			continue
		}

		if curFE.FileType() != consts.FileTypeDirectory {
			return nil, nil, udferr.ErrNotADirectory
		}

		childNode, childFE, found, err := lookup(curNode, curFE, name, opts)
		if err != nil {
			return nil, nil, err
		}
		if !found {
			return nil, nil, udferr.ErrNotFound
		}

		if childFE.FileType() == consts.FileTypeSymlink {
			depth++
			if depth > MaxSymlinkDepth {
				return nil, nil, udferr.ErrSymlinkLoop
			}
			target, err := symlink.Read(childNode, childFE, opts)
			if err != nil {
				return nil, nil, err
			}
			rest := splitPath(target)
			if strings.HasPrefix(target, "/") {
				curNode, curFE = rootNode, rootFE
			}
			queue = append(rest, queue...)
			continue
		}

		curNode, curFE = childNode, childFE
	}

	switch expected {
	case ExpectDir:
		if curFE.FileType() != consts.FileTypeDirectory {
			return nil, nil, udferr.ErrNotADirectory
		}
	case ExpectReg:
		if curFE.FileType() == consts.FileTypeDirectory {
			return nil, nil, udferr.ErrNotADirectory
		}
	}

	return curNode, curFE, nil
}

func lookup(dirNode *volume.Node, dirFE *icb.FileEntryLike, name string, opts *option.OpenOptions) (*volume.Node, *icb.FileEntryLike, bool, error) {
	var childNode *volume.Node
	var childFE *icb.FileEntryLike
	found := false

	err := dirent.Iterate(dirNode, dirFE, func(info dirent.DirInfo) bool {
		if info.Name == name {
			childNode, childFE, found = info.Node, info.FE, true
			return true
		}
		return false
	}, opts)
	if err != nil {
		return nil, nil, false, err
	}
	return childNode, childFE, found, nil
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
