package service

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/Harshitk-cp/groundwork/internal/domain"
)

const DefaultSeedCacheCapacity = 1000

// QuestionKey is the stable digest used to key per-question bundles.
func QuestionKey(question string) string {
	sum := sha256.Sum256([]byte(domain.NormalizeQuestion(question)))
	return hex.EncodeToString(sum[:])
}

// SeedCacheStats is a snapshot for /metrics.
type SeedCacheStats struct {
	Ready     bool  `json:"ready"`
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
	Evictions int64 `json:"evictions"`
}

// SeedCache holds the global floor bundle and per-question bundles.
// Per-question entries are evicted in batches by insertion order, oldest half
// first, once the map reaches capacity. Access recency is not tracked.
type SeedCache struct {
	mu        sync.Mutex
	capacity  int
	global    *domain.SeedBundle
	ticket    uint64
	ready     bool
	questions map[string]*domain.SeedBundle
	order     []string
	evictions int64
}

func NewSeedCache(capacity int) *SeedCache {
	if capacity <= 1 {
		capacity = DefaultSeedCacheCapacity
	}
	c := &SeedCache{capacity: capacity}
	c.Init()
	return c
}

// Init resets the cache to its empty, not-ready state.
func (c *SeedCache) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.global = nil
	c.ticket = 0
	c.ready = false
	c.questions = make(map[string]*domain.SeedBundle)
	c.order = nil
}

// Clear drops every bundle, including the global one.
func (c *SeedCache) Clear() {
	c.Init()
}

func (c *SeedCache) GlobalBundle() (*domain.SeedBundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global, c.global != nil
}

// SetGlobalBundle installs b, replacing any previous global bundle.
func (c *SeedCache) SetGlobalBundle(b *domain.SeedBundle) {
	if b == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.global = b
	c.ready = true
}

// InstallGlobalBundle installs b unless a bundle from a later-started load
// (a higher ticket) is already installed. It reports whether b was installed.
func (c *SeedCache) InstallGlobalBundle(b *domain.SeedBundle, ticket uint64) bool {
	if b == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket < c.ticket {
		return false
	}
	c.global = b
	c.ticket = ticket
	c.ready = true
	return true
}

func (c *SeedCache) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *SeedCache) QuestionBundle(question string) (*domain.SeedBundle, bool) {
	key := QuestionKey(question)
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.questions[key]
	return b, ok
}

func (c *SeedCache) SetQuestionBundle(question string, b *domain.SeedBundle) {
	if b == nil {
		return
	}
	key := QuestionKey(question)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setQuestionLocked(key, b)
}

// SetQuestionBundleFrom caches b only while base is still the global bundle,
// so a bundle derived before a refresh is never cached after it.
func (c *SeedCache) SetQuestionBundleFrom(question string, b, base *domain.SeedBundle) bool {
	if b == nil {
		return false
	}
	key := QuestionKey(question)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.global != base {
		return false
	}
	c.setQuestionLocked(key, b)
	return true
}

func (c *SeedCache) setQuestionLocked(key string, b *domain.SeedBundle) {
	if _, exists := c.questions[key]; exists {
		c.questions[key] = b
		return
	}
	if len(c.questions) >= c.capacity {
		c.evictOldestLocked(c.capacity / 2)
	}
	c.questions[key] = b
	c.order = append(c.order, key)
}

// ClearQuestions drops per-question bundles but keeps the global one.
func (c *SeedCache) ClearQuestions() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions = make(map[string]*domain.SeedBundle)
	c.order = nil
}

func (c *SeedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.questions)
}

func (c *SeedCache) Stats() SeedCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SeedCacheStats{
		Ready:     c.ready,
		Entries:   len(c.questions),
		Capacity:  c.capacity,
		Evictions: c.evictions,
	}
}

func (c *SeedCache) evictOldestLocked(n int) {
	n = min(n, len(c.order))
	for _, key := range c.order[:n] {
		delete(c.questions, key)
	}
	c.order = append([]string(nil), c.order[n:]...)
	c.evictions += int64(n)
}
