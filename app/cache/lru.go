package cache

// evictList maintains cache eviction order. It is a circular doubly
// linked list around a single sentinel node; the least recently used
// entry sits immediately before the sentinel.
type evictList struct {
	sentinel *evictNode
	nodes    map[string]*evictNode
}

type evictNode struct {
	key        string
	prev, next *evictNode
}

func newEvictList() *evictList {
	s := &evictNode{}
	s.prev = s
	s.next = s
	return &evictList{
		sentinel: s,
		nodes:    make(map[string]*evictNode),
	}
}

// touch inserts the key at the front, or moves it there if present.
func (l *evictList) touch(key string) {
	node, ok := l.nodes[key]
	if ok {
		l.unlink(node)
	} else {
		node = &evictNode{key: key}
		l.nodes[key] = node
	}

	node.next = l.sentinel.next
	node.prev = l.sentinel
	l.sentinel.next.prev = node
	l.sentinel.next = node
}

// remove drops the key from the list if present.
func (l *evictList) remove(key string) {
	if node, ok := l.nodes[key]; ok {
		l.unlink(node)
		delete(l.nodes, key)
	}
}

// removeOldest unlinks and returns the least recently used key.
func (l *evictList) removeOldest() (string, bool) {
	if len(l.nodes) == 0 {
		return "", false
	}

	node := l.sentinel.prev
	l.unlink(node)
	delete(l.nodes, node.key)
	return node.key, true
}

// len returns the number of tracked keys.
func (l *evictList) len() int {
	return len(l.nodes)
}

func (l *evictList) unlink(node *evictNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
