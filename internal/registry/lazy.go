// internal/registry/lazy.go
package registry

import (
	"fmt"
	"sync"
)

// Lazy wraps a registry whose construction is deferred until the first
// lookup. The open function runs at most once; its result, success or
// failure, is cached for the life of the wrapper. This lets a parser be
// constructed before its registry database is opened without racing
// concurrent first lookups.
func Lazy(open func() (Registry, error)) Registry {
	return &lazyRegistry{open: open}
}

type lazyRegistry struct {
	open func() (Registry, error)
	once sync.Once
	reg  Registry
	err  error
}

func (l *lazyRegistry) resolve() (Registry, error) {
	l.once.Do(func() {
		l.reg, l.err = l.open()
	})
	if l.err != nil {
		return nil, fmt.Errorf("opening registry: %w", l.err)
	}
	return l.reg, nil
}

func (l *lazyRegistry) LookupItem(name string) (*Item, error) {
	r, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return r.LookupItem(name)
}

func (l *lazyRegistry) LookupThing(uid string) (*Thing, error) {
	r, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return r.LookupThing(uid)
}

func (l *lazyRegistry) LookupChannel(uid string) (*Channel, error) {
	r, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return r.LookupChannel(uid)
}

func (l *lazyRegistry) Members(group string) ([]Item, error) {
	r, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return r.Members(group)
}

func (l *lazyRegistry) AllMembers(group string) ([]Item, error) {
	r, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return r.AllMembers(group)
}
