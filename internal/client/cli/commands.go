package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/plantfolk/plantkeeper/internal/client/backup"
	"github.com/plantfolk/plantkeeper/internal/common"
)

// exportBackup writes a backup archive to the current directory. By default
// photos are bundled; "export nophotos" emits a bare JSON manifest.
func (a *App) exportBackup(ctx context.Context, args []string) error {
	includePhotos := true
	if len(args) > 0 && args[0] == "nophotos" {
		includePhotos = false
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	if err := a.orchestrator.Export(ctx, includePhotos, &FileSharer{Dir: cwd}); err != nil {
		return err
	}
	fmt.Println("Backup written to", cwd)
	return nil
}

// importBackup restores from an archive file: "import <path> [merge|overwrite]".
// Merge is the default.
func (a *App) importBackup(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: import <path> [merge|overwrite]")
		return nil
	}

	mode := backup.ModeMerge
	if len(args) > 1 {
		switch args[1] {
		case "merge":
			mode = backup.ModeMerge
		case "overwrite":
			mode = backup.ModeOverwrite
		default:
			fmt.Println("Usage: import <path> [merge|overwrite]")
			return nil
		}
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	if err := a.orchestrator.Import(ctx, data, mode); err != nil {
		return err
	}

	a.saveSession(ctx) // tokens may have rotated during the sync
	fmt.Println("Import finished.")
	return nil
}

// sync replays queued local writes to the mirror server, then warms the
// local cache from it.
func (a *App) sync(ctx context.Context) error {
	replayed, err := a.orchestrator.ReplayPending(ctx)
	if err != nil {
		return err
	}
	if replayed > 0 {
		fmt.Printf("Replayed %d pending operation(s).\n", replayed)
	}

	if err := a.orchestrator.WarmCache(ctx); err != nil {
		return err
	}

	a.saveSession(ctx)
	fmt.Println("Sync finished.")
	return nil
}

// photoStats prints the active photo backend and its total size.
func (a *App) photoStats(ctx context.Context) error {
	size := a.locker.TotalSize(ctx)
	fmt.Printf("Backend: %s, total size: %d bytes\n", a.locker.Backend().Name(), size)
	return nil
}

// migratePhotos moves locally kept photos into the media library.
func (a *App) migratePhotos(ctx context.Context) error {
	moved, err := a.locker.MigrateToLibrary(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Moved %d photo(s) to the media library.\n", moved)
	return nil
}

func (a *App) status(ctx context.Context) {
	fmt.Printf("Mode: %s\n", a.Mode)
	fmt.Printf("Backup state: %s\n", a.orchestrator.State())
	if last, err := a.store.ReadString(ctx, common.KeyLastSyncedAt); err == nil && last != "" {
		fmt.Printf("Last synced: %s\n", last)
	}
	if a.isLoggedIn() {
		fmt.Printf("Signed in as %s\n", a.userName)
	} else {
		fmt.Println("Signed out")
	}
}
