// Package mcp exposes course-corpus retrieval over the Model Context
// Protocol.
package mcp

// RetrieveInput defines the input parameters for the
// retrieve_course_context tool.
type RetrieveInput struct {
	// Query is the study question or topic to ground.
	Query string `json:"query" jsonschema:"required,description=The study question or topic to retrieve course material for"`
	// UserID scopes retrieval to one user's corpus.
	UserID string `json:"user_id" jsonschema:"required,description=The user whose course corpus is searched"`
	// CourseID optionally narrows retrieval to one course.
	CourseID string `json:"course_id,omitempty" jsonschema:"description=Optional course to scope the search to"`
	// TopK is the requested number of chunks (capped at 15).
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=15,default=10,description=Maximum number of chunks to return"`
	// ExpandContextWindow is the neighborhood radius for the full
	// strategy; omit for the default of 2, set 0 to disable expansion.
	ExpandContextWindow *int `json:"expand_context_window,omitempty" jsonschema:"minimum=0,description=Neighboring chunks fetched around each result under the full strategy"`
}

// ChunkResult is one retrieved chunk in the tool response.
type ChunkResult struct {
	ID           string            `json:"id"`
	CourseID     string            `json:"course_id,omitempty"`
	DocumentType string            `json:"document_type"`
	FileName     string            `json:"file_name"`
	ChunkIndex   int               `json:"chunk_index"`
	Content      string            `json:"content"`
	Similarity   float64           `json:"similarity,omitempty"`
	RRFScore     float64           `json:"rrf_score,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// RetrieveOutput is the retrieval response envelope.
type RetrieveOutput struct {
	Results         []ChunkResult `json:"results"`
	QueryVariations []string      `json:"query_variations"`
	FinalChunkCount int           `json:"final_chunk_count"`
	Strategy        string        `json:"strategy"`
	Message         string        `json:"message,omitempty"`
}

// StatusInput defines the input parameters for the corpus_status tool.
type StatusInput struct {
	UserID   string `json:"user_id" jsonschema:"required,description=The user whose corpus is inspected"`
	CourseID string `json:"course_id,omitempty" jsonschema:"description=Optional course scope"`
}

// StatusOutput reports corpus size and the retrieval tier it maps to.
type StatusOutput struct {
	ChunkCount int    `json:"chunk_count"`
	Strategy   string `json:"strategy"`
}

// ListDocumentsInput defines the input parameters for the list_documents
// tool.
type ListDocumentsInput struct {
	UserID   string `json:"user_id" jsonschema:"required,description=The user whose corpus is listed"`
	CourseID string `json:"course_id,omitempty" jsonschema:"description=Optional course scope"`
}

// ListDocumentsOutput contains the distinct document file names in scope.
type ListDocumentsOutput struct {
	FileNames []string `json:"file_names"`
	Count     int      `json:"count"`
}
