package config

import (
    "encoding/json"
    "os"
    "sync"
    "time"

    "github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads a ServerConfig from a JSON file on disk, so a running
// host can pick up lobby changes without a restart.
type Watcher struct {
    mu         sync.Mutex
    w          *fsnotify.Watcher
    lastReload time.Time
    cooldown   time.Duration
}

// WatchServerConfig watches path and calls onChange with the freshly
// parsed config every time the file is written. Parse or stat failures go
// to onErr instead of onChange, if onErr is non-nil. The returned Watcher
// must be closed to stop watching.
func WatchServerConfig(path string, onChange func(ServerConfig), onErr func(error)) (*Watcher, error) {
    fw, err := fsnotify.NewWatcher()
    if err != nil {
        return nil, err
    }
    if err := fw.Add(path); err != nil {
        fw.Close()
        return nil, err
    }
    cw := &Watcher{w: fw, cooldown: 500 * time.Millisecond}
    go cw.loop(path, onChange, onErr)
    return cw, nil
}

func (cw *Watcher) loop(path string, onChange func(ServerConfig), onErr func(error)) {
    for {
        select {
        case event, ok := <-cw.w.Events:
            if !ok {
                return
            }
            if event.Op&fsnotify.Write != fsnotify.Write {
                continue
            }
            if !cw.debounce() {
                continue
            }
            cfg, err := loadServerConfigFile(path)
            if err != nil {
                if onErr != nil {
                    onErr(err)
                }
                continue
            }
            onChange(cfg)
        case err, ok := <-cw.w.Errors:
            if !ok {
                return
            }
            if onErr != nil && err != nil {
                onErr(err)
            }
        }
    }
}

func (cw *Watcher) debounce() bool {
    cw.mu.Lock()
    defer cw.mu.Unlock()
    now := time.Now()
    if now.Sub(cw.lastReload) < cw.cooldown {
        return false
    }
    cw.lastReload = now
    return true
}

// Close stops watching the file.
func (cw *Watcher) Close() error { return cw.w.Close() }

func loadServerConfigFile(path string) (ServerConfig, error) {
    data, err := os.ReadFile(path)
    if err != nil {
        return ServerConfig{}, err
    }
    c := ServerDefaults()
    if err := json.Unmarshal(data, &c); err != nil {
        return ServerConfig{}, err
    }
    return c, nil
}
