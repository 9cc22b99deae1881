package main

import (
	"container/heap"
)

// node is a Huffman tree node. Leaves have no children; internal nodes
// always have two.
type node struct {
	symbol byte
	weight uint64
	// order breaks weight ties: a leaf uses its byte value, an internal
	// node uses alphabetSize plus its creation index.
	order int
	left  *node
	right *node
}

func (n *node) isLeaf() bool {
	return n.left == nil && n.right == nil
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].order < h[j].order
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(*node))
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// buildTree runs Huffman's greedy merge over the present symbols of ft.
// The first node taken off the heap becomes the left (0) child, so the
// result only depends on the counts.
//
// A table with one symbol yields a lone leaf; buildCodeTable gives it a
// one-bit code.
func buildTree(ft *frequencyTable) (*node, error) {
	if ft.len() == 0 {
		return nil, ErrEmptyInput
	}

	h := make(nodeHeap, 0, ft.len())
	for _, s := range ft.symbols() {
		c, _ := ft.count(s)
		h = append(h, &node{symbol: s, weight: uint64(c), order: int(s)})
	}
	heap.Init(&h)

	next := alphabetSize
	for h.Len() > 1 {
		a := heap.Pop(&h).(*node)
		b := heap.Pop(&h).(*node)
		heap.Push(&h, &node{
			weight: a.weight + b.weight,
			order:  next,
			left:   a,
			right:  b,
		})
		next++
	}
	return heap.Pop(&h).(*node), nil
}
