package data

import (
	"context"
	"slices"
	"sync"
)

// List is an ordered collection of items compared by identity (==). Mutating
// methods return the list so calls can be chained. It is safe for concurrent use.
type List[T comparable] struct {
	mu    sync.RWMutex
	items []T
}

// NewList returns a list holding a copy of items.
func NewList[T comparable](items ...T) *List[T] {
	return &List[T]{items: slices.Clone(items)}
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Item returns the item at index.
func (l *List[T]) Item(index int) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.items) {
		var zero T
		return zero, false
	}
	return l.items[index], true
}

// IndexOf returns the position of the first occurrence of item, or -1.
func (l *List[T]) IndexOf(item T) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Index(l.items, item)
}

// Items returns a copy of the items.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Each calls fn for every item in order. fn sees the items present when Each was
// called and may modify the list.
func (l *List[T]) Each(fn func(T)) *List[T] {
	for _, item := range l.Items() {
		fn(item)
	}
	return l
}

// Add appends item.
func (l *List[T]) Add(item T) *List[T] {
	return l.AddAt(-1, item)
}

// AddAt inserts items before position index. A negative index or one past the end
// appends.
func (l *List[T]) AddAt(index int, items ...T) *List[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index > len(l.items) {
		index = len(l.items)
	}
	l.items = slices.Insert(l.items, index, items...)
	return l
}

// Remove removes, for each of items, its last occurrence in the list. Items that
// are not in the list are ignored.
func (l *List[T]) Remove(items ...T) *List[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range items {
		for j := len(l.items) - 1; j >= 0; j-- {
			if l.items[j] == item {
				l.items = slices.Delete(l.items, j, j+1)
				break
			}
		}
	}
	return l
}

// RemoveAt removes the item at index. An index out of range is ignored.
func (l *List[T]) RemoveAt(index int) *List[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index >= 0 && index < len(l.items) {
		l.items = slices.Delete(l.items, index, index+1)
	}
	return l
}

// Collect executes the query like Fetch and returns the records as a List.
func (q *QuerySet) Collect(ctx context.Context) (*List[*Model], error) {
	records, err := q.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return &List[*Model]{items: records}, nil
}
