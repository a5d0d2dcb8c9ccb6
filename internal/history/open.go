package history

import (
	"fmt"

	"github.com/quocvuong92/zor/internal/logging"
)

// Backend names accepted by Open
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend rooted at dir
func Open(backend, dir string, logger *logging.Logger) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return OpenJSON(dir, logger)
	case BackendSQLite:
		return OpenSQLite(dir, logger)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}
