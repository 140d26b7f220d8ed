package credstore

import "os"

// renameio has no Windows support; the write is not atomic there and
// concurrent writers are serialized by the file lock alone.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}
