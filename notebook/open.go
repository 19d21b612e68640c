package notebook

// Open loads a notebook through backend, runs fn against it, and
// guarantees Commit() on every exit path — normal return, error
// return, or panic — mirroring the source's context-manager-style
// `LabNotebook.open()`. The commit error, if any, is folded into the
// return only when fn itself succeeded; a failing fn's error always
// wins.
func Open(backend Backend, fn func(nb *Notebook) error) error {
	nb, err := backend.Load()
	if err != nil {
		return err
	}
	nb.SetBackend(backend)

	defer func() {
		_ = nb.Commit()
	}()

	if err := fn(nb); err != nil {
		return err
	}
	return nb.Commit()
}
