package requests

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brettbedarf/projfs"
)

// CreateRequest is a decoded create body with defaults applied
type CreateRequest struct {
	CurrentDir string
	Input      string
}

// UnmarshalCreateRequest decodes a create body. A missing currentDir means
// the root; a missing input is left empty for the creator to reject.
func UnmarshalCreateRequest(data []byte) (*CreateRequest, error) {
	var dto CreateRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("decode create request: %w", err)
	}
	return &CreateRequest{
		CurrentDir: valueOrDefault(dto.CurrentDir, "."),
		Input:      valueOrDefault(dto.Input, ""),
	}, nil
}

// NewCreateRequest builds the wire body sent by remote clients
func NewCreateRequest(currentDir, input string) CreateRequestDTO {
	return CreateRequestDTO{CurrentDir: &currentDir, Input: &input}
}

func NewListResponse(l *projfs.Listing) ListResponseDTO {
	items := make([]EntryDTO, 0, len(l.Entries))
	for _, e := range l.Entries {
		items = append(items, EntryDTO{Name: e.Name, Type: e.Kind})
	}
	return ListResponseDTO{OK: true, Dir: l.Dir, Items: items}
}

// Listing converts a decoded response back into the core type
func (dto ListResponseDTO) Listing() (*projfs.Listing, error) {
	entries := make([]projfs.Entry, 0, len(dto.Items))
	for _, item := range dto.Items {
		kind, err := projfs.ParseEntryKind(string(item.Type))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", item.Name, err)
		}
		entries = append(entries, projfs.Entry{Name: item.Name, Kind: kind})
	}
	return &projfs.Listing{Dir: valueOrDefault(nonEmpty(dto.Dir), "."), Entries: entries}, nil
}

func NewCreateResponse(c *projfs.Created) CreateResponseDTO {
	return CreateResponseDTO{OK: true, Kind: c.Kind, Path: c.Path}
}

// Created converts a decoded response back into the core type
func (dto CreateResponseDTO) Created() (*projfs.Created, error) {
	kind, err := projfs.ParseEntryKind(string(dto.Kind))
	if err != nil {
		return nil, err
	}
	if dto.Path == "" {
		return nil, errors.New("create response has no path")
	}
	return &projfs.Created{Kind: kind, Path: dto.Path}, nil
}

// NewErrorResponse describes err with its stable code
func NewErrorResponse(err error) ErrorResponseDTO {
	return ErrorResponseDTO{OK: false, Error: err.Error(), Code: projfs.CodeOf(err)}
}

// Err rebuilds the error so errors.Is matches the original sentinel
func (dto ErrorResponseDTO) Err() error {
	return projfs.ErrorFromCode(dto.Code, dto.Error)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func valueOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
