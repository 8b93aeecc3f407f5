package analysis

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ianlancetaylor/demangle"
)

// symbolCache memoizes demangled names. Safe for concurrent use.
type symbolCache struct {
	mu            sync.RWMutex
	demangleCache map[string]string
	hitCount      map[string]int
}

var cache = &symbolCache{
	demangleCache: make(map[string]string),
	hitCount:      make(map[string]int),
}

// CachedDemangle demangles an Itanium C++ or Rust symbol, returning the
// input unchanged when it is not mangled. A "@plt" suffix is preserved.
func CachedDemangle(mangled string) string {
	cache.mu.Lock()
	if cached, ok := cache.demangleCache[mangled]; ok {
		cache.hitCount[mangled]++
		cache.mu.Unlock()
		return cached
	}
	cache.mu.Unlock()

	base, plt := strings.CutSuffix(mangled, "@plt")
	demangled := demangle.Filter(base, demangle.NoClones)
	if plt {
		demangled += "@plt"
	}

	cache.mu.Lock()
	cache.demangleCache[mangled] = demangled
	cache.hitCount[mangled] = 1
	cache.mu.Unlock()
	return demangled
}

// GetDemangleCacheStats returns the number of cached symbols, the number
// of lookups served from the cache and the five most requested symbols.
func GetDemangleCacheStats() (totalSymbols int, cacheHits int, topSymbols []string) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	type symbolHit struct {
		symbol string
		count  int
	}
	symbols := make([]symbolHit, 0, len(cache.hitCount))
	totalHits := 0
	for sym, count := range cache.hitCount {
		totalHits += count
		symbols = append(symbols, symbolHit{sym, count})
	}
	sort.Slice(symbols, func(i, j int) bool {
		if symbols[i].count != symbols[j].count {
			return symbols[i].count > symbols[j].count
		}
		return symbols[i].symbol < symbols[j].symbol
	})

	for i := 0; i < 5 && i < len(symbols); i++ {
		topSymbols = append(topSymbols, fmt.Sprintf("%s (%d hits)", symbols[i].symbol, symbols[i].count))
	}
	return len(cache.demangleCache), totalHits - len(cache.demangleCache), topSymbols
}

// symbolize names va as "sym" or "sym+0x10".
func symbolize(img Image, va uint64) (string, bool) {
	sym, off, ok := img.Lookup(va)
	if !ok {
		return "", false
	}
	name := CachedDemangle(sym.Name)
	if off == 0 {
		return name, true
	}
	return fmt.Sprintf("%s+0x%x", name, off), true
}
