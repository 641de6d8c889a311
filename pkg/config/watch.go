package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/seafoodai/seafood-terminal/pkg/logging"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written. It runs until ctx is cancelled.
//
// A reload that fails (e.g. invalid YAML) is logged and onChange is not
// called, so the previous config stays active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	logger := logging.NewLogger(logging.ComponentConfig)
	logger.Info().Str("path", path).Msg("Watching config for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so Create counts as a write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				logger.Error().Err(err).Str("path", path).Msg("Config reload failed, keeping previous config")
				continue
			}

			logger.Info().Str("path", path).Msg("Config reloaded")
			onChange(cfg)

			// Re-add in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("Config watcher error")
		}
	}
}
