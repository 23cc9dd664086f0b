// Package resumefile loads the resume to upload from the local filesystem.
package resumefile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ResumeSource = (*Source)(nil)

// maxResumeBytes matches the portal's upload limit.
const maxResumeBytes = 2 << 20

// Source reads the resume from a fixed path on every Load, so replacing the
// file takes effect at the next run.
type Source struct {
	path     string
	fileName string
}

// New creates a Source. fileName is the name presented to the portal and
// defaults to the base name of path.
func New(path, fileName string) *Source {
	if fileName == "" {
		fileName = filepath.Base(path)
	}
	return &Source{path: path, fileName: fileName}
}

// Load reads the file. Empty and oversized files are rejected before any
// portal call is made.
func (s *Source) Load(ctx context.Context) (model.ResumeArtifact, error) {
	if err := ctx.Err(); err != nil {
		return model.ResumeArtifact{}, err
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return model.ResumeArtifact{}, fmt.Errorf("stat resume: %w", err)
	}
	if info.IsDir() {
		return model.ResumeArtifact{}, fmt.Errorf("resume path %s is a directory", s.path)
	}
	if info.Size() > maxResumeBytes {
		return model.ResumeArtifact{}, fmt.Errorf("resume %s is %d bytes, limit is %d", s.path, info.Size(), maxResumeBytes)
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		return model.ResumeArtifact{}, fmt.Errorf("read resume: %w", err)
	}
	if len(content) == 0 {
		return model.ResumeArtifact{}, errors.New("resume file is empty")
	}

	return model.ResumeArtifact{FileName: s.fileName, Content: content}, nil
}
