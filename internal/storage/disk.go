package storage

import "os"

// DiskUsageBytes returns the total on-disk size of the given database files,
// including SQLite WAL and shared-memory sidecars when present. Missing
// paths contribute 0.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		for _, candidate := range []string{p, p + "-wal", p + "-shm"} {
			info, err := os.Stat(candidate)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return 0, err
			}
			if !info.IsDir() {
				total += info.Size()
			}
		}
	}
	return total, nil
}
