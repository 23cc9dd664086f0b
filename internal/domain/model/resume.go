package model

// ResumeArtifact is the local file uploaded to replace the portal-held resume.
type ResumeArtifact struct {
	FileName string
	Content  []byte
}
