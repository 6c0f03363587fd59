package memory

import (
	"bufio"
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"
)

// Predicates is an in-memory ports.PredicateStore.
// Values set with Put shadow the defaults loaded from a file.
type Predicates struct {
	mu       sync.RWMutex
	values   map[string]string
	defaults map[string]string
}

// NewPredicates creates a store seeded with initial values.
func NewPredicates(initial map[string]string) *Predicates {
	p := &Predicates{
		values:   make(map[string]string, len(initial)),
		defaults: make(map[string]string),
	}
	maps.Copy(p.values, initial)
	return p
}

// Get returns the value of key, or its default.
func (p *Predicates) Get(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		return v, true
	}
	v, ok := p.defaults[key]
	return v, ok
}

// Put sets key to value.
func (p *Predicates) Put(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
}

// Values returns a copy of the values set explicitly.
func (p *Predicates) Values() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.values)
}

// LoadDefaults reads "name:value" lines from path. Lines without a separator
// and lines starting with '#' are ignored.
func (p *Predicates) LoadDefaults(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open predicate defaults: %w", err)
	}
	defer f.Close()

	loaded := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		loaded[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read predicate defaults: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	maps.Copy(p.defaults, loaded)
	return nil
}
