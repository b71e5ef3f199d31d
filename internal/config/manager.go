package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Manager struct {
	mu       sync.RWMutex
	path     string
	config   *Config
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
	logger   *zap.Logger
	onChange func(*Config)
}

// NewManager loads the config at path, or the user's config file when path
// is empty.
func NewManager(path string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("config")

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config, err := LoadFrom(path)
	if err != nil {
		logger.Error("Config manager: failed to load initial configuration", zap.Error(err))
		return nil, err
	}

	if err := config.Validate(); err != nil {
		logger.Warn("Config manager: validation warning", zap.Error(err))
	}

	logger.Info("Config manager: configuration loaded", zap.String("path", path))
	return &Manager{
		path:   path,
		config: config,
		logger: logger,
	}, nil
}

// Path returns the file the manager reads.
func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	configCopy.Transcription.Languages = append([]string(nil), m.config.Transcription.Languages...)
	configCopy.Providers = make(map[string]ProviderConfig, len(m.config.Providers))
	for k, v := range m.config.Providers {
		configCopy.Providers[k] = v
	}
	return &configCopy
}

// OnChange registers fn to run after each successful reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	m.watcher = watcher

	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return err
	}

	m.wg.Add(1)
	go m.watchLoop(ctx)

	m.logger.Info("Config manager: watching for changes", zap.String("path", m.path))
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != configFileName {
				continue
			}

			// SaveTo renames over the file, which shows up as Create
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				m.logger.Info("Config manager: file change detected, reloading", zap.String("file", event.Name))
				m.reload()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("Config watcher error", zap.Error(err))

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reload() {
	newConfig, err := LoadFrom(m.path)
	if err != nil {
		m.logger.Warn("Config manager: failed to reload config", zap.Error(err))
		return
	}

	if err := newConfig.Validate(); err != nil {
		m.logger.Warn("Config manager: invalid config after reload", zap.Error(err))
		return
	}

	m.mu.Lock()
	m.config = newConfig
	onChange := m.onChange
	m.mu.Unlock()

	m.logger.Info("Config manager: configuration reloaded")
	if onChange != nil {
		onChange(m.GetConfig())
	}
}
