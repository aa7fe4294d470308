package tileset

import "github.com/landform/terracore/internal/tiletree"

// StableID derives a tile's address from its root-to-node path rather than
// its position in Tree.Tiles, so re-running the builder against the same
// tree shape reproduces the same ids even if allocation order changes.
// It generalizes the teacher's Hilbert tile-ID assignment to a tree whose
// branching factor varies by scheme (2, 4, or 8 children) and, for
// octree/quadtree splits that prune empty children, by node: each step
// down the path contributes base-9 digit (childIndex+1), with 0 reserved
// as a path terminator, so no two tiles ever collide.
func StableID(tree *tiletree.Tree, id tiletree.TileID) uint64 {
	path := pathFromRoot(tree, id)
	var stable uint64 = 1
	for _, idx := range path {
		stable = stable*9 + uint64(idx+1)
	}
	return stable
}

// pathFromRoot returns the sequence of child indices leading from the
// tree's root down to id.
func pathFromRoot(tree *tiletree.Tree, id tiletree.TileID) []int {
	var reversed []int
	cur := id
	for cur != tree.Root {
		parent := tree.Tiles[cur].Parent
		idx := childIndex(tree.Tiles[parent].Children, cur)
		reversed = append(reversed, idx)
		cur = parent
	}
	path := make([]int, len(reversed))
	for i, v := range reversed {
		path[len(reversed)-1-i] = v
	}
	return path
}

func childIndex(children []tiletree.TileID, target tiletree.TileID) int {
	for i, c := range children {
		if c == target {
			return i
		}
	}
	return 0
}
