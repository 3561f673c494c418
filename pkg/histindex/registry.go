package histindex

import (
	"sync"

	"github.com/zenfun/histindex/pkg/core"
)

// The service is normally handed to its consumers explicitly. Hosts that can
// only discover collaborators through a global lookup may use the default
// slot, which Plugin.Start sets and Plugin.Stop clears; nothing inside this
// module reads it.
var (
	defaultMu      sync.RWMutex
	defaultService *core.Service
)

// SetDefault publishes (or clears, with nil) the process-wide service handle.
func SetDefault(s *core.Service) {
	defaultMu.Lock()
	defaultService = s
	defaultMu.Unlock()
}

// Default returns the service published by SetDefault, or nil.
func Default() *core.Service {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultService
}
