// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jllopis/agentplate/pkg/template"
)

// DefaultCacheSize bounds the number of parsed files kept by CachingLoader.
const DefaultCacheSize = 256

type cacheKind uint8

const (
	kindTemplate cacheKind = iota
	kindFragment
	kindToolConfig
)

type cacheKey struct {
	kind cacheKind
	path string
}

// cacheEntry remembers the file version a value was parsed from.
type cacheEntry struct {
	value   any
	modTime time.Time
	size    int64
}

// CachingLoader memoizes parsed files from another Loader in an LRU cache.
// An entry is reused only while the file's modification time and size are
// unchanged. Hits are deep copies, so callers never share state with the
// cache or with each other.
type CachingLoader struct {
	next  Loader
	cache *lru.Cache[cacheKey, cacheEntry]
}

// NewCachingLoader wraps next. A size <= 0 selects DefaultCacheSize.
func NewCachingLoader(next Loader, size int) (*CachingLoader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachingLoader{next: next, cache: cache}, nil
}

// LoadTemplate implements Loader.
func (c *CachingLoader) LoadTemplate(ctx context.Context, path string) (*template.AgentTemplate, error) {
	key := c.key(kindTemplate, path)
	info, fresh := c.lookup(key)
	if fresh != nil {
		return fresh.(*template.AgentTemplate).Clone(), nil
	}
	tmpl, err := c.next.LoadTemplate(ctx, path)
	if err != nil {
		return nil, err
	}
	c.store(key, info, tmpl.Clone())
	return tmpl, nil
}

// LoadFragment implements Loader.
func (c *CachingLoader) LoadFragment(ctx context.Context, path string) (*template.PromptFragment, error) {
	key := c.key(kindFragment, path)
	info, fresh := c.lookup(key)
	if fresh != nil {
		return fresh.(*template.PromptFragment).Clone(), nil
	}
	frag, err := c.next.LoadFragment(ctx, path)
	if err != nil {
		return nil, err
	}
	c.store(key, info, frag.Clone())
	return frag, nil
}

// LoadToolConfig implements Loader.
func (c *CachingLoader) LoadToolConfig(ctx context.Context, path string) (*template.ToolConfig, error) {
	key := c.key(kindToolConfig, path)
	info, fresh := c.lookup(key)
	if fresh != nil {
		return fresh.(*template.ToolConfig).Clone(), nil
	}
	cfg, err := c.next.LoadToolConfig(ctx, path)
	if err != nil {
		return nil, err
	}
	c.store(key, info, cfg.Clone())
	return cfg, nil
}

// Purge drops every cached entry.
func (c *CachingLoader) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached entries.
func (c *CachingLoader) Len() int {
	return c.cache.Len()
}

// lookup returns the cached value for key when the file on disk still
// matches it, along with the current file info for storing a reload.
func (c *CachingLoader) lookup(key cacheKey) (os.FileInfo, any) {
	info, err := os.Stat(key.path)
	if err != nil {
		c.cache.Remove(key)
		return nil, nil
	}
	entry, ok := c.cache.Get(key)
	if !ok {
		return info, nil
	}
	if !entry.modTime.Equal(info.ModTime()) || entry.size != info.Size() {
		c.cache.Remove(key)
		return info, nil
	}
	return info, entry.value
}

func (c *CachingLoader) store(key cacheKey, info os.FileInfo, value any) {
	if info == nil {
		return
	}
	c.cache.Add(key, cacheEntry{value: value, modTime: info.ModTime(), size: info.Size()})
}

func (c *CachingLoader) key(kind cacheKind, path string) cacheKey {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return cacheKey{kind: kind, path: filepath.Clean(path)}
}
