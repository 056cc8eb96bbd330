// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global Notchly directory.
	GlobalDirName = ".notchly"

	// CacheDirName is the name of the on-disk cache directory.
	CacheDirName = "cache"
)

// File names
const (
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"

	// TimerMetaFileName holds externally written timer metadata (title,
	// duration) mirrored from the system timer preferences domain.
	TimerMetaFileName = "timerd.yaml"
)

// GlobalDir returns the path to the global Notchly directory (~/.notchly/).
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonFileName), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// GlobalTimerMetaFile returns the path to the timerd.yaml file.
func GlobalTimerMetaFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TimerMetaFileName), nil
}

// GlobalCacheDir returns the path to the cache directory.
func GlobalCacheDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CacheDirName), nil
}

// EnsureGlobalDir creates the global Notchly directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// EnsureGlobalCacheDir creates the cache directory if it doesn't exist.
func EnsureGlobalCacheDir() error {
	dir, err := GlobalCacheDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
