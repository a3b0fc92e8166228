// Package watcher keeps a mirror's search cache in step with the mirror.
//
// A panamax sync rewrites the config marker inside the metadata root. The
// watcher observes that one file, primarily through fsnotify on its parent
// directory and by polling its modification time where fsnotify is
// unavailable. Bursts of events are debounced, then the index is rebuilt
// and the cache overwritten.
//
// Usage:
//
//	r := watcher.NewRunner(store, watcher.DefaultOptions(), nil)
//	if err := r.Run(ctx); err != nil {
//	    return err
//	}
package watcher
