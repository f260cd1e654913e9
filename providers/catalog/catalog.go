package catalog

import (
	"sort"
	"strings"
	"sync"
)

// DialectInfo captures metadata about a dialect validator.
type DialectInfo struct {
	ID         string
	Aliases    []string
	Extensions []string
}

var (
	mu        sync.RWMutex
	byDialect = make(map[string]DialectInfo)
	byAlias   = make(map[string]DialectInfo)
	byExt     = make(map[string]DialectInfo)
)

// Register stores dialect metadata for alias and extension lookups.
// Subsequent registrations for the same dialect merge into the existing
// entry, so a sparse re-registration never drops aliases or extensions.
func Register(info DialectInfo) {
	if info.ID == "" {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	id := strings.ToLower(info.ID)
	if existing, ok := byDialect[id]; ok {
		info.Aliases = append(existing.Aliases, info.Aliases...)
		info.Extensions = append(existing.Extensions, info.Extensions...)
	}
	info.Extensions = uniqueLower(info.Extensions)
	info.Aliases = uniqueLower(info.Aliases)

	byDialect[id] = info
	byAlias[id] = info
	for _, alias := range info.Aliases {
		byAlias[alias] = info
	}
	for _, ext := range info.Extensions {
		byExt[ext] = info
	}
}

// LookupByExtension returns the dialect info associated with a file extension.
func LookupByExtension(ext string) (DialectInfo, bool) {
	mu.RLock()
	defer mu.RUnlock()
	info, ok := byExt[strings.ToLower(ext)]
	return info, ok
}

// LookupByAlias resolves a dialect id or alias ("amp", "ampscript", ...).
func LookupByAlias(name string) (DialectInfo, bool) {
	mu.RLock()
	defer mu.RUnlock()
	info, ok := byAlias[strings.ToLower(name)]
	return info, ok
}

// Dialects returns all registered dialect infos sorted by dialect ID.
func Dialects() []DialectInfo {
	mu.RLock()
	defer mu.RUnlock()

	infos := make([]DialectInfo, 0, len(byDialect))
	for _, info := range byDialect {
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

func uniqueLower(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
