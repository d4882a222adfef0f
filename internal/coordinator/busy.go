package coordinator

import "sync"

// Op names a mutation kind in the busy-set.
type Op string

const (
	OpCreatePost    Op = "create-post"
	OpDeletePost    Op = "delete-post"
	OpLike          Op = "like"
	OpCommentLike   Op = "comment-like"
	OpFollow        Op = "follow"
	OpEditCaption   Op = "edit-caption"
	OpAddComment    Op = "add-comment"
	OpUpdateProfile Op = "update-profile"
	OpUpdateAvatar  Op = "update-avatar"
)

type busyKey struct {
	op Op
	id string
}

type busySet struct {
	mu   sync.Mutex
	keys map[busyKey]struct{}
}

func (b *busySet) acquire(op Op, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.keys == nil {
		b.keys = make(map[busyKey]struct{})
	}
	key := busyKey{op: op, id: id}
	if _, ok := b.keys[key]; ok {
		return false
	}
	b.keys[key] = struct{}{}
	return true
}

func (b *busySet) release(op Op, id string) {
	b.mu.Lock()
	delete(b.keys, busyKey{op: op, id: id})
	b.mu.Unlock()
}

func (b *busySet) has(op Op, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.keys[busyKey{op: op, id: id}]
	return ok
}

func (b *busySet) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.keys)
}
