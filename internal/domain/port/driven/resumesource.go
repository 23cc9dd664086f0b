package driven

import (
	"context"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

// ResumeSource supplies the resume file to upload.
type ResumeSource interface {
	Load(ctx context.Context) (model.ResumeArtifact, error)
}
