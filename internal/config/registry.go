package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/echodiff/pkg/asr"
)

// ErrProviderNotRegistered is returned by [Registry.CreateASR] when no factory
// has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// ErrNoProvider is returned by [Registry.BuildASR] when the config names no
// transcription provider at all.
var ErrNoProvider = errors.New("config: no transcription provider configured")

// providerSlot holds a lazily constructed provider instance. The once gate
// guarantees the underlying factory runs at most once per entry even under
// concurrent CreateASR calls.
type providerSlot struct {
	once     sync.Once
	provider asr.Provider
	err      error
}

// Registry maps provider names to their constructor functions and caches
// constructed instances per [ProviderEntry]. Caching matters for in-process
// providers, where each instance pins a multi-hundred-megabyte model in
// memory. Factories are registered by the binary (see cmd/echodiff), keeping
// this package free of provider build constraints. It is safe for concurrent
// use.
type Registry struct {
	mu  sync.RWMutex
	asr map[string]func(ProviderEntry) (asr.Provider, error)

	instMu    sync.Mutex
	instances map[ProviderEntry]*providerSlot
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		asr:       make(map[string]func(ProviderEntry) (asr.Provider, error)),
		instances: make(map[ProviderEntry]*providerSlot),
	}
}

// RegisterASR registers a transcription provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterASR(name string, factory func(ProviderEntry) (asr.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asr[name] = factory
}

// CreateASR returns the transcription provider for entry, constructing it via
// the factory registered under entry.Name on first use and serving the cached
// instance afterwards. Returned providers are instrumented with request and
// error metrics. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name. Failed constructions are not cached.
func (r *Registry) CreateASR(entry ProviderEntry) (asr.Provider, error) {
	r.mu.RLock()
	factory, ok := r.asr[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: asr/%q", ErrProviderNotRegistered, entry.Name)
	}

	r.instMu.Lock()
	slot, ok := r.instances[entry]
	if !ok {
		slot = &providerSlot{}
		r.instances[entry] = slot
	}
	r.instMu.Unlock()

	slot.once.Do(func() {
		p, err := factory(entry)
		if err != nil {
			slot.err = fmt.Errorf("config: create asr/%q: %w", entry.Name, err)
			return
		}
		slot.provider = newMeteredProvider(entry.Name, p)
	})

	if slot.err != nil {
		r.instMu.Lock()
		delete(r.instances, entry)
		r.instMu.Unlock()
		return nil, slot.err
	}
	return slot.provider, nil
}

// BuildASR constructs the transcription provider chain described by cfg:
// the primary provider, wrapped in a fallback group when fallbacks are
// configured. Entries are used exactly as configured; callers derive any
// default language before calling.
func (r *Registry) BuildASR(cfg *Config) (asr.Provider, error) {
	if cfg.ASR.Provider.Name == "" {
		return nil, ErrNoProvider
	}

	primary, err := r.CreateASR(cfg.ASR.Provider)
	if err != nil {
		return nil, err
	}
	if len(cfg.ASR.Fallbacks) == 0 {
		return primary, nil
	}

	group := asr.NewFallback(cfg.ASR.Provider.Name, primary)
	for _, entry := range cfg.ASR.Fallbacks {
		p, err := r.CreateASR(entry)
		if err != nil {
			return nil, err
		}
		group.AddFallback(entry.Name, p)
	}
	return group, nil
}

// Close shuts down all cached provider instances and clears the cache.
func (r *Registry) Close() error {
	r.instMu.Lock()
	defer r.instMu.Unlock()

	var errs []error
	for entry, slot := range r.instances {
		if slot.provider == nil {
			continue
		}
		if err := slot.provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("config: close asr/%q: %w", entry.Name, err))
		}
	}
	clear(r.instances)
	return errors.Join(errs...)
}
