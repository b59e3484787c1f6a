//go:build !linux

package cu

// systemMemory returns total system memory in bytes. Without an OS query
// available, assume a reasonable workstation.
func systemMemory() uint64 {
	return defaultSystemMemory
}
