package match

// BKTree indexes terms by edit distance for approximate lookups: each node
// stores a term and children keyed by their distance from it, so queries can
// prune whole subtrees with the triangle inequality. Not needed when scoring
// against a single answer, but the right structure for "did you mean one of
// N titles" lookups over a catalog.
//
// Not safe for concurrent mutation; build the tree up front and share it
// read-only.
type BKTree struct {
	root *bkNode
	size int
}

type bkNode struct {
	term     string
	children map[int]*bkNode
}

// Result is one term found within the query's distance bound.
type Result struct {
	Term     string
	Distance int
}

// NewBKTree builds a tree from the given terms. Terms are indexed as given;
// callers that want canonical matching should Normalize before inserting.
func NewBKTree(terms ...string) *BKTree {
	t := &BKTree{}
	for _, term := range terms {
		t.Insert(term)
	}
	return t
}

// Size returns the number of terms in the tree.
func (t *BKTree) Size() int {
	return t.size
}

// Insert adds a term, descending by distance until it finds a free edge.
// Duplicate terms (distance 0 to an existing node) are ignored.
func (t *BKTree) Insert(term string) {
	if t.root == nil {
		t.root = &bkNode{term: term}
		t.size++
		return
	}

	node := t.root
	for {
		d := Distance(term, node.term)
		if d == 0 {
			return
		}
		if node.children == nil {
			node.children = make(map[int]*bkNode)
		}
		child, ok := node.children[d]
		if !ok {
			node.children[d] = &bkNode{term: term}
			t.size++
			return
		}
		node = child
	}
}

// Query returns every term within maxDist of the query, unordered. A node's
// children are visited only when their edge key lies in [d-maxDist, d+maxDist]
// where d is the query-to-node distance.
func (t *BKTree) Query(term string, maxDist int) []Result {
	if t.root == nil || maxDist < 0 {
		return nil
	}

	var results []Result
	stack := []*bkNode{t.root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d := Distance(term, node.term)
		if d <= maxDist {
			results = append(results, Result{Term: node.term, Distance: d})
		}

		for key, child := range node.children {
			if key >= d-maxDist && key <= d+maxDist {
				stack = append(stack, child)
			}
		}
	}
	return results
}
