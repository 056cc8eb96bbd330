package config

import (
	"github.com/notchly-app/notchly/internal/models"
)

// LoadTimerMeta loads the external timer metadata from ~/.notchly/timerd.yaml.
// If the file doesn't exist, returns empty metadata.
func LoadTimerMeta() (*models.TimerMeta, error) {
	path, err := GlobalTimerMetaFile()
	if err != nil {
		return nil, err
	}
	return LoadYAMLOrDefault(path, func() *models.TimerMeta { return &models.TimerMeta{} })
}

// SaveTimerMeta writes the timer metadata file. The daemon's preference
// watcher picks the change up.
func SaveTimerMeta(meta *models.TimerMeta) error {
	if err := EnsureGlobalDir(); err != nil {
		return err
	}
	path, err := GlobalTimerMetaFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, meta)
}
