package output

import (
	"path"

	"github.com/disiqueira/gotree/v3"
)

// VisualTree is a node of a printable tree.
type VisualTree struct {
	node gotree.Tree
}

func NewVisualTree(rootLabel string) VisualTree {
	return VisualTree{node: gotree.New(rootLabel)}
}

// Add appends a child node and returns it.
func (t VisualTree) Add(label string) VisualTree {
	return VisualTree{node: t.node.Add(label)}
}

func (t VisualTree) Render() string {
	return t.node.Print()
}

// VisualFileTree arranges slash-separated paths below a node by directory.
type VisualFileTree struct {
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

// Files starts a file tree whose root directory is this node.
func (t VisualTree) Files() VisualFileTree {
	return VisualFileTree{tree: t.node, dirs: make(map[string]gotree.Tree)}
}

func (t VisualFileTree) getDir(dirPath string) (dir gotree.Tree) {
	if dirPath == "." || dirPath == "" {
		return t.tree
	}
	dir = t.dirs[dirPath]
	if dir == nil {
		parentDir := t.getDir(path.Dir(dirPath))
		dir = parentDir.Add(path.Base(dirPath) + "/")
		t.dirs[dirPath] = dir
	}
	return
}

func (t VisualFileTree) InsertPath(filePath string, nodePrefix string, nodeSuffix string) {
	file := path.Base(filePath)
	dir := t.getDir(path.Dir(filePath))
	dir.Add(nodePrefix + file + nodeSuffix)
}

func (t VisualFileTree) Render() string {
	return t.tree.Print()
}
