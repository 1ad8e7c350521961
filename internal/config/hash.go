package config

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"rbsec/internal/cop"
)

// Digest - фиксированный 256 битный хеш (совместим с source.File.Hash)
type Digest [32]byte

// Fingerprint hashes everything that can change lint results: the
// effective settings of every cop and the exclusion list.
func (c *Config) Fingerprint(settings cop.Settings) Digest {
	h := sha256.New()
	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cfg := settings[name]
		fmt.Fprintf(h, "%s|%t|%d\n", name, cfg.Enabled, cfg.Severity)
		keys := make([]string, 0, len(cfg.Options))
		for k := range cfg.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "\t%s=%v\n", k, cfg.Options[k])
		}
	}
	for _, pattern := range c.Exclude {
		fmt.Fprintf(h, "exclude %s\n", pattern)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Combine строит общий хеш: H( first || rest... ).
func Combine(first Digest, rest ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
