package requests

import "github.com/brettbedarf/projfs"

// EntryDTO is the JSON representation of [projfs.Entry]
type EntryDTO struct {
	Name string           `json:"name"`
	Type projfs.EntryKind `json:"type"` // "dir" or "file"
}

// ListResponseDTO is the body of a successful GET /api/list
type ListResponseDTO struct {
	OK    bool       `json:"ok"`
	Dir   string     `json:"dir"` // canonical relative dir; "." for the root
	Items []EntryDTO `json:"items"`
}

// CreateRequestDTO is the body of POST /api/create.
//
// Ex.
//
//	{"currentDir": "backend", "input": "/scripts"}
type CreateRequestDTO struct {
	CurrentDir *string `json:"currentDir,omitempty"` // Defaults to "." (the root)
	Input      *string `json:"input,omitempty"`
}

// CreateResponseDTO is the body of a successful POST /api/create
type CreateResponseDTO struct {
	OK   bool             `json:"ok"`
	Kind projfs.EntryKind `json:"kind"`
	Path string           `json:"path"`
}

// ErrorResponseDTO is the body of every failed request
type ErrorResponseDTO struct {
	OK    bool             `json:"ok"`
	Error string           `json:"error"`
	Code  projfs.ErrorCode `json:"code"`
}
