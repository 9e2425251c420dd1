package model

// Chunk is a retrievable unit of policy text addressed by "policy_id:section_id"
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata identifies where a chunk came from
type ChunkMetadata struct {
	PolicyID   string `json:"policy_id"`
	SectionID  string `json:"section_id"`
	Title      string `json:"title,omitempty"`
	SourcePath string `json:"source_path,omitempty"`
	ChunkIndex int    `json:"chunk_index"`
}

// RetrievedChunk is a chunk returned for one query, with its search distance
type RetrievedChunk struct {
	Chunk
	Distance float64 `json:"distance"`
}

// ChunkID builds the citation key for a policy section
func ChunkID(policyID, sectionID string) string {
	return policyID + ":" + sectionID
}
