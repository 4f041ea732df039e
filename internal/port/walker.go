package port

// FileWalker lists files under a root directory, filtered by the
// implementation's include/exclude patterns, in deterministic order.
type FileWalker interface {
	Walk(root string) ([]string, error)
}
