package kdtree

type stackFrame struct {
	node        uint32
	entry, exit float32
}

// Stack holds the pending far children of a traversal. A stack must not be
// shared between concurrent queries.
type Stack struct {
	frames []stackFrame
	size   int

	// Passed to query callbacks; lives here so queries do not allocate.
	scratch Hit
}

// NewStack allocates a traversal stack with room for capacity frames.
func NewStack(capacity int) *Stack {
	if capacity < 1 {
		capacity = 1
	}
	return &Stack{frames: make([]stackFrame, capacity)}
}

// Cap returns the number of frames the stack can hold.
func (s *Stack) Cap() int {
	return len(s.frames)
}

func (s *Stack) reset() {
	s.size = 0
}

func (s *Stack) empty() bool {
	return s.size == 0
}

func (s *Stack) push(node uint32, entry, exit float32) error {
	if s.size == len(s.frames) {
		return ErrStackOverflow
	}
	s.frames[s.size] = stackFrame{node: node, entry: entry, exit: exit}
	s.size++
	return nil
}

func (s *Stack) pop() stackFrame {
	s.size--
	return s.frames[s.size]
}

// NewStack allocates a stack large enough for any traversal of the tree.
// Every pending frame refers to a node on a distinct tree level so the
// tree depth bounds the number of frames.
func (c *Collider) NewStack() *Stack {
	return NewStack(c.depth)
}

func (c *Collider) getStack() *Stack {
	if s, ok := c.stacks.Get().(*Stack); ok {
		return s
	}
	return c.NewStack()
}
