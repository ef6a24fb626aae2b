package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/cmdtee/internal/registry"
	"github.com/giantswarm/cmdtee/internal/sink"
)

// purgeLockName is the lock file inside the base directory that serializes
// purge sweeps across processes.
const purgeLockName = "purge.lock"

// purgeLockRetryInterval is the interval between consecutive attempts to
// acquire the purge lock. 50ms balances responsiveness (low wait after the
// holder releases) against CPU overhead from busy-polling.
const purgeLockRetryInterval = 50 * time.Millisecond

// purgeParallelism caps concurrent directory removals during a sweep.
const purgeParallelism = 4

// orphanAge is how old an unjournaled run directory must be before Purge
// removes it. One hour comfortably exceeds the window between a run creating
// its directory and writing its journal row.
const orphanAge = time.Hour

// Purge reclaims sink directories leaked by runner processes that died
// mid-run. It takes a cross-process lock, lists the journal, removes the
// directories of runs whose pid is no longer alive, and additionally sweeps
// run directories that have no journal row and are older than an hour. Runs
// whose pid is still alive are left untouched.
//
// Returns the number of directories removed. Platforms without a cheap pid
// probe treat every journaled pid as live, so only aged orphans are swept.
func (r *Runner) Purge(ctx context.Context) (int, error) {
	log := Logger()

	if _, err := os.Stat(r.cfg.BaseDir); os.IsNotExist(err) {
		// Nothing has ever run under this base directory.
		return 0, nil
	}

	fl := flock.New(filepath.Join(r.cfg.BaseDir, purgeLockName))
	locked, err := fl.TryLockContext(ctx, purgeLockRetryInterval)
	if err != nil {
		return 0, fmt.Errorf("acquire purge lock %s: %w", fl.Path(), err)
	}
	if !locked {
		// TryLockContext reports failure through the error; handle the
		// (false, nil) case all the same.
		if ctx.Err() != nil {
			return 0, fmt.Errorf("acquire purge lock %s: %w", fl.Path(), ctx.Err())
		}
		return 0, fmt.Errorf("acquire purge lock %s: lock not acquired", fl.Path())
	}
	defer func() {
		// The lock file stays on disk: removing it could invalidate a lock
		// concurrently acquired by another process. Close releases the lock
		// and the descriptor.
		if err := fl.Close(); err != nil {
			log.Debug("failed to release purge lock", "path", fl.Path(), "error", err)
		}
	}()

	reg, err := registry.Open(ctx, r.cfg.BaseDir)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			log.Warn("purge: close run journal", "error", err)
		}
	}()

	entries, err := reg.List(ctx)
	if err != nil {
		return 0, err
	}

	journaled := make(map[string]struct{}, len(entries))
	var stale []registry.Entry
	for _, e := range entries {
		journaled[filepath.Base(e.Dir)] = struct{}{}

		if !strings.HasPrefix(filepath.Base(e.Dir), sink.DirPrefix()) {
			// Only directories the sink layer created are eligible for
			// removal. Anything else in the journal is suspect.
			log.Warn("purge: skipping journal row with unexpected dir", "run", e.ID, "dir", e.Dir)
			continue
		}
		if pidAlive(e.PID) {
			log.Debug("purge: run still alive", "run", e.ID, "pid", e.PID)
			continue
		}
		stale = append(stale, e)
	}

	orphans, err := r.findOrphanDirs(journaled)
	if err != nil {
		return 0, err
	}

	if len(stale) == 0 && len(orphans) == 0 {
		log.Debug("purge: nothing to reclaim")
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(purgeParallelism)

	var removed atomic.Int64

	for _, e := range stale {
		e := e
		g.Go(func() error {
			if err := os.RemoveAll(e.Dir); err != nil {
				return fmt.Errorf("remove stale run dir %s: %w", e.Dir, err)
			}
			if err := reg.Forget(gctx, e.ID); err != nil {
				return err
			}
			removed.Add(1)
			log.Debug("purge: reclaimed stale run", "run", e.ID, "pid", e.PID, "dir", e.Dir)
			return nil
		})
	}
	for _, dir := range orphans {
		dir := dir
		g.Go(func() error {
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("remove orphan run dir %s: %w", dir, err)
			}
			removed.Add(1)
			log.Debug("purge: reclaimed orphan dir", "dir", dir)
			return nil
		})
	}

	sweepErr := g.Wait()
	n := int(removed.Load())

	if n > 0 {
		log.Info("purge complete", "removed", n, "journal_rows", len(entries))
	}
	if sweepErr != nil {
		return n, fmt.Errorf("purge sweep: %w", sweepErr)
	}
	return n, nil
}

// findOrphanDirs returns run directories under the base dir that have no
// journal row and were last modified more than orphanAge ago. These are left
// by runs that crashed before writing their journal row, or that ran with
// journaling disabled.
func (r *Runner) findOrphanDirs(journaled map[string]struct{}) ([]string, error) {
	dirents, err := os.ReadDir(r.cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("read base directory %s: %w", r.cfg.BaseDir, err)
	}

	cutoff := time.Now().Add(-orphanAge)

	var orphans []string
	for _, de := range dirents {
		if !de.IsDir() || !strings.HasPrefix(de.Name(), sink.DirPrefix()) {
			continue
		}
		if _, ok := journaled[de.Name()]; ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed concurrently; nothing left to reclaim.
			continue
		}
		if info.ModTime().After(cutoff) {
			// Recent enough to belong to an in-flight unjournaled run.
			continue
		}
		orphans = append(orphans, filepath.Join(r.cfg.BaseDir, de.Name()))
	}

	return orphans, nil
}
