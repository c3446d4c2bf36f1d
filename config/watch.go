package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
)

// WatchFiles calls onChange with the path of any of the passed files when it is
// written or replaced, until ctx is cancelled. Parent directories are watched
// rather than the files, since editors often save by renaming over the file.
func WatchFiles(ctx context.Context, paths []string, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	watched := map[string]string{}
	dirs := map[string]bool{}
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		watched[abs] = path

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err = watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path, isWatched := watched[filepath.Clean(event.Name)]
			if !isWatched {
				break
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				glog.V(1).Infof("%s changed: %s", path, event.Op)
				onChange(path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			glog.Warningf("watch error: %v", err)
		}
	}
}
