// Package art is the public façade over the index: a single-threaded Tree
// and a concurrent ConcurrentTree sharing the same node engine underneath,
// plus the key-encoding collaborator in the sibling keycodec package.
package art

import "errors"

// ErrValueTooLarge is returned by Insert when T is []byte and the value is
// longer than 2^32-1 bytes. Values of any other type are never rejected.
var ErrValueTooLarge = errors.New("art: value exceeds 2^32-1 bytes")

// ErrNotQuiescent is returned by ConcurrentTree.Clear when more than one
// goroutine is currently registered with the tree's QSBR domain. Clearing
// while other threads may be mid-traversal would race the root swap
// against their reads; the caller must quiesce down to a single
// participant first.
var ErrNotQuiescent = errors.New("art: clear requires a single registered thread")
