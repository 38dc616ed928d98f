package photos

import (
	"context"
	"fmt"
)

// MigrateToLibrary moves photos from the app-private directory into the
// media library once one becomes available. Each source file is deleted only
// after its destination write succeeds; a failed copy leaves the source in
// place and the migration moves on. Returns how many photos were moved.
func (l *Locker) MigrateToLibrary(ctx context.Context) (int, error) {
	lib, ok := l.backend.(*LibraryBackend)
	if !ok {
		return 0, fmt.Errorf("no media library backend selected")
	}
	if l.dir == nil {
		return 0, nil
	}

	names, err := l.dir.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list app photo directory: %w", err)
	}

	moved := 0
	for _, name := range names {
		if err := l.migrateOne(ctx, lib, name); err != nil {
			l.log.Warn(ctx, "photo migration skipped", "filename", name, "error", err)
			continue
		}
		moved++
	}
	l.log.Info(ctx, "photo migration finished", "moved", moved, "total", len(names))
	return moved, nil
}

func (l *Locker) migrateOne(ctx context.Context, lib *LibraryBackend, name string) error {
	src, err := l.dir.Open(ctx, name)
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := lib.Save(ctx, name, src); err != nil {
		return err
	}
	// Destination confirmed; only now remove the source.
	return l.dir.Delete(ctx, name)
}
