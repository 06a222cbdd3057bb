package ranker

// item is a scored candidate. pos is the candidate's position in the input
// order and breaks score ties.
type item struct {
	index int
	score float32
	pos   int
}

// boundedQueue keeps the best capacity items seen so far. The root of the
// heap is the worst kept item, so a better newcomer replaces it in O(log k).
type boundedQueue struct {
	higherIsBetter bool
	capacity       int
	items          []item
}

func newBoundedQueue(capacity int, higherIsBetter bool) *boundedQueue {
	return &boundedQueue{
		higherIsBetter: higherIsBetter,
		capacity:       capacity,
		items:          make([]item, 0, capacity),
	}
}

// better reports whether a ranks before b. Equal scores keep input order.
func (q *boundedQueue) better(a, b item) bool {
	if a.score != b.score {
		if q.higherIsBetter {
			return a.score > b.score
		}
		return a.score < b.score
	}
	return a.pos < b.pos
}

// less orders the heap with the worst item at the root.
func (q *boundedQueue) less(i, j int) bool {
	return q.better(q.items[j], q.items[i])
}

func (q *boundedQueue) len() int { return len(q.items) }

// push inserts it. When the queue is full, it replaces the root only if it
// ranks better than the root.
func (q *boundedQueue) push(it item) {
	if q.capacity == 0 {
		return
	}
	if len(q.items) < q.capacity {
		q.items = append(q.items, it)
		q.siftUp(len(q.items) - 1)
		return
	}
	if q.better(it, q.items[0]) {
		q.items[0] = it
		q.siftDown(0)
	}
}

// pop removes and returns the worst item.
func (q *boundedQueue) pop() (item, bool) {
	n := len(q.items)
	if n == 0 {
		return item{}, false
	}

	top := q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return top, true
}

// drain empties the queue and returns its items best first.
func (q *boundedQueue) drain() []item {
	out := make([]item, q.len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = q.pop()
	}
	return out
}

func (q *boundedQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *boundedQueue) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && q.less(right, left) {
			child = right
		}
		if !q.less(child, i) {
			break
		}
		q.items[i], q.items[child] = q.items[child], q.items[i]
		i = child
	}
}
