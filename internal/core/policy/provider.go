package policy

import (
	"sync"

	"orderflow/pkg/config"
)

// Provider hands out the current policy snapshot. Reload re-reads the
// config file; on failure the last good snapshot stays in place, so a bad
// edit never leaves the sweep without a policy.
type Provider struct {
	mu   sync.Mutex
	last *Policy
}

func NewProvider(t config.Thresholds) *Provider {
	return &Provider{last: FromConfig(t)}
}

// Snapshot returns the current policy. The returned value is immutable;
// callers hold it for the duration of one sweep.
func (p *Provider) Snapshot() *Policy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Reload re-parses the config file and swaps in the new tables. The swap is
// only visible to the next Snapshot call, never to a sweep in flight.
func (p *Provider) Reload() error {
	cfg, err := config.ParseYAML()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.last = FromConfig(cfg.Thresholds)
	p.mu.Unlock()
	return nil
}

// Static wraps a fixed policy as a provider.
type Static struct {
	Policy *Policy
}

func (s Static) Snapshot() *Policy {
	return s.Policy
}
