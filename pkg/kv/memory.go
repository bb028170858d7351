// Package kv's memory.go backs Store with a mutex-guarded map, for unit
// tests and local runs that shouldn't need a BadgerDB file on disk.
package kv

import (
	"bytes"
	"context"
	"iter"
	"sort"
	"sync"
)

// Memory is a Store over a plain Go map, safe for concurrent use. Every
// read and write copies its byte slice in or out so a caller holding onto a
// returned []byte can't observe or cause a later mutation.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	opts *Options
}

// NewMemory returns an empty Memory store. opts may be nil for defaults.
func NewMemory(opts *Options) *Memory {
	return &Memory{
		data: make(map[string][]byte),
		opts: opts,
	}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	k := string(m.opts.encode(key))
	m.mu.RLock()
	v, ok := m.data[k]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	k := string(m.opts.encode(key))
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	m.data[k] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	k := string(m.opts.encode(key))
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	p := m.opts.encode(prefix)
	// The separator is appended so a prefix "a:b" doesn't also match "a:bc";
	// an empty prefix scans every entry.
	var prefixBytes []byte
	if len(p) > 0 {
		prefixBytes = append(p, m.opts.sep())
	}

	m.mu.RLock()
	type match struct {
		key string
		val []byte
	}
	var matches []match
	for k, v := range m.data {
		if len(prefixBytes) == 0 || bytes.HasPrefix([]byte(k), prefixBytes) {
			cp := make([]byte, len(v))
			copy(cp, v)
			matches = append(matches, match{k, cp})
		}
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].key < matches[j].key
	})

	decode := m.opts.decode
	return func(yield func(Entry, error) bool) {
		for _, mt := range matches {
			entry := Entry{
				Key:   decode([]byte(mt.key)),
				Value: mt.val,
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// BatchSet holds the lock for the whole batch, so readers never see a
// partial write.
func (m *Memory) BatchSet(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		k := string(m.opts.encode(e.Key))
		cp := make([]byte, len(e.Value))
		copy(cp, e.Value)
		m.data[k] = cp
	}
	return nil
}

// BatchDelete holds the lock for the whole batch, same as BatchSet.
func (m *Memory) BatchDelete(_ context.Context, keys []Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		k := string(m.opts.encode(key))
		delete(m.data, k)
	}
	return nil
}

// Close is a no-op; a Memory store owns no external resource.
func (m *Memory) Close() error {
	return nil
}
