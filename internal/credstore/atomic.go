//go:build !windows

package credstore

import (
	"os"

	"github.com/google/renameio"
)

// writeFileAtomic replaces filename via a temp file and rename, so readers
// see either the old or the new content.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(filename, data, perm)
}
