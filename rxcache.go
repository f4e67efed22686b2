package texpect

import (
	"sync"
	"time"

	"git.fractalqb.de/fractalqb/icontainer/islist"
	"github.com/dlclark/regexp2"
)

// All fragment regular expressions are compiled with these options: '^'
// and '$' match at line boundaries and '.' matches newlines.
const rxOptions = regexp2.Multiline | regexp2.Singleline

const DefaultRxCacheSize = 256

// RxCache keeps compiled regular expressions. When it is full the oldest
// entry is evicted. A nil *RxCache compiles without caching. RxCache is
// safe for concurrent use.
type RxCache struct {
	// Maximum number of entries, DefaultRxCacheSize if ≤ 0
	Size int

	mu    sync.Mutex
	rxs   map[rxKey]*rxEntry
	order *islist.List
}

type rxKey struct {
	pattern string
	timeout time.Duration
}

type rxEntry struct {
	key  rxKey
	rx   *regexp2.Regexp
	next *rxEntry
}

// ListNext to implement intrusive singly linked list
func (e *rxEntry) ListNext() islist.Node {
	if e.next == nil {
		return nil
	}
	return e.next
}

// SetListNext to implement intrusive singly linked list
func (e *rxEntry) SetListNext(n islist.Node) {
	if n == nil {
		e.next = nil
	} else {
		e.next = n.(*rxEntry)
	}
}

// Compile returns the compiled pattern with its MatchTimeout set to
// timeout. Zero timeout means no timeout. Compilation errors are not
// cached.
func (c *RxCache) Compile(pattern string, timeout time.Duration) (*regexp2.Regexp, error) {
	if c == nil {
		return compileRx(pattern, timeout)
	}
	key := rxKey{pattern, timeout}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.rxs[key]; e != nil {
		return e.rx, nil
	}
	rx, err := compileRx(pattern, timeout)
	if err != nil {
		return nil, err
	}
	e := &rxEntry{key: key, rx: rx}
	if c.rxs == nil {
		c.rxs = make(map[rxKey]*rxEntry)
	}
	c.rxs[key] = e
	if c.order == nil || c.order.Len() == 0 {
		c.order = islist.New(e)
	} else {
		c.order.PushBack(e)
	}
	size := c.Size
	if size <= 0 {
		size = DefaultRxCacheSize
	}
	for c.order.Len() > size {
		old := c.order.Front().(*rxEntry)
		c.order.Drop(1)
		delete(c.rxs, old.key)
	}
	return rx, nil
}

// Len returns the number of cached regular expressions.
func (c *RxCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rxs)
}

func compileRx(pattern string, timeout time.Duration) (*regexp2.Regexp, error) {
	rx, err := regexp2.Compile(pattern, rxOptions)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		rx.MatchTimeout = timeout
	}
	return rx, nil
}
