package eviction

import "container/list"

type lfuNode struct {
	key  string
	freq int
	elem *list.Element
}

// lfu groups keys into per-frequency buckets. Each bucket is ordered oldest
// first, so ties evict the key that reached that frequency earliest.
type lfu struct {
	nodes   map[string]*lfuNode
	buckets map[int]*list.List

	// minFreq may point at an emptied bucket after Remove; Evict repairs it.
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		nodes:   make(map[string]*lfuNode),
		buckets: make(map[int]*list.List),
	}
}

func (l *lfu) OnGet(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}
	l.unlink(n)
	if n.freq == l.minFreq && l.buckets[n.freq] == nil {
		l.minFreq++
	}
	n.freq++
	l.link(n)
}

func (l *lfu) OnPut(k string) {
	if _, ok := l.nodes[k]; ok {
		return
	}
	n := &lfuNode{key: k, freq: 1}
	l.nodes[k] = n
	l.link(n)
	l.minFreq = 1
}

func (l *lfu) Evict() string {
	if len(l.nodes) == 0 {
		return ""
	}
	b := l.buckets[l.minFreq]
	if b == nil {
		l.minFreq = l.lowestFreq()
		b = l.buckets[l.minFreq]
	}
	n := b.Front().Value.(*lfuNode)
	l.unlink(n)
	delete(l.nodes, n.key)
	return n.key
}

func (l *lfu) Remove(k string) {
	if n, ok := l.nodes[k]; ok {
		l.unlink(n)
		delete(l.nodes, k)
	}
}

func (l *lfu) Len() int { return len(l.nodes) }

func (l *lfu) link(n *lfuNode) {
	b := l.buckets[n.freq]
	if b == nil {
		b = list.New()
		l.buckets[n.freq] = b
	}
	n.elem = b.PushBack(n)
}

// unlink removes n from its bucket and drops the bucket once empty.
func (l *lfu) unlink(n *lfuNode) {
	b := l.buckets[n.freq]
	b.Remove(n.elem)
	if b.Len() == 0 {
		delete(l.buckets, n.freq)
	}
}

func (l *lfu) lowestFreq() int {
	low := 0
	for f := range l.buckets {
		if low == 0 || f < low {
			low = f
		}
	}
	return low
}
