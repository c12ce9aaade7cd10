package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

// ProjectMetadata is read from the [project] table of the project file
type ProjectMetadata struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type projectFile struct {
	Project ProjectMetadata `toml:"project"`
}

// LoadProjectMetadata reads name and version from a TOML project file. A
// missing file yields empty metadata, only a malformed file is an error.
func LoadProjectMetadata(path string) (ProjectMetadata, error) {
	var pf projectFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", path).Msg("Project file not found, project metadata is empty")
			return ProjectMetadata{}, nil
		}
		return ProjectMetadata{}, fmt.Errorf("failed to decode project file %s: %w", path, err)
	}

	if pf.Project.Name == "" {
		log.Warn().Str("path", path).Msg("Project name not found in [project.name]")
	}
	if pf.Project.Version == "" {
		log.Warn().Str("path", path).Msg("Project version not found in [project.version]")
	}

	return pf.Project, nil
}
