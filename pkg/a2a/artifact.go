package a2a

import "github.com/google/uuid"

/*
Artifact is a named output produced by a task.  It references its content
either by URI or inline as JSON data.
*/
type Artifact struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Name     *string        `json:"name,omitempty"`
	URI      string         `json:"uri,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewDataArtifact(artifactType string, name string, data map[string]any) Artifact {
	return Artifact{
		ID:   uuid.NewString(),
		Type: artifactType,
		Name: &name,
		Data: data,
	}
}

func NewURIArtifact(artifactType string, name string, uri string) Artifact {
	return Artifact{
		ID:   uuid.NewString(),
		Type: artifactType,
		Name: &name,
		URI:  uri,
	}
}
