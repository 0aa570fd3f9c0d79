package requests

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/brettbedarf/projfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalCreateRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want CreateRequest
	}{
		{"both fields", `{"currentDir":"backend","input":"/scripts"}`, CreateRequest{"backend", "/scripts"}},
		{"missing currentDir", `{"input":"notes.txt"}`, CreateRequest{".", "notes.txt"}},
		{"empty currentDir kept", `{"currentDir":"","input":"a"}`, CreateRequest{"", "a"}},
		{"missing input", `{"currentDir":"src"}`, CreateRequest{"src", ""}},
		{"empty object", `{}`, CreateRequest{".", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalCreateRequest([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}

	_, err := UnmarshalCreateRequest([]byte(`{"input":`))
	assert.Error(t, err)
	_, err = UnmarshalCreateRequest([]byte(`{"input":42}`))
	assert.Error(t, err)
}

func TestNewCreateRequest_WireShape(t *testing.T) {
	data, err := json.Marshal(NewCreateRequest(".", "notes.txt"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"currentDir":".","input":"notes.txt"}`, string(data))
}

func TestListResponse(t *testing.T) {
	l := &projfs.Listing{Dir: ".", Entries: []projfs.Entry{
		{Name: "src", Kind: projfs.KindDir},
		{Name: "go.mod", Kind: projfs.KindFile},
	}}

	data, err := json.Marshal(NewListResponse(l))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"dir":".","items":[{"name":"src","type":"dir"},{"name":"go.mod","type":"file"}]}`, string(data))

	var dto ListResponseDTO
	require.NoError(t, json.Unmarshal(data, &dto))
	back, err := dto.Listing()
	require.NoError(t, err)
	assert.Equal(t, l, back)
}

func TestListResponse_EmptyItemsIsArray(t *testing.T) {
	data, err := json.Marshal(NewListResponse(&projfs.Listing{Dir: "empty"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"dir":"empty","items":[]}`, string(data))
}

func TestListResponse_Invalid(t *testing.T) {
	dto := ListResponseDTO{OK: true, Items: []EntryDTO{{Name: "x", Type: "socket"}}}
	_, err := dto.Listing()
	assert.ErrorContains(t, err, `"x"`)

	l, err := ListResponseDTO{OK: true}.Listing()
	require.NoError(t, err)
	assert.Equal(t, ".", l.Dir)
}

func TestCreateResponse(t *testing.T) {
	data, err := json.Marshal(NewCreateResponse(&projfs.Created{Kind: projfs.KindDir, Path: "backend/scripts"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"kind":"dir","path":"backend/scripts"}`, string(data))

	c, err := CreateResponseDTO{Kind: "file", Path: "a.txt"}.Created()
	require.NoError(t, err)
	assert.Equal(t, &projfs.Created{Kind: projfs.KindFile, Path: "a.txt"}, c)

	_, err = CreateResponseDTO{Kind: "link", Path: "a"}.Created()
	assert.Error(t, err)
	_, err = CreateResponseDTO{Kind: "file"}.Created()
	assert.Error(t, err)
}

func TestErrorResponse_RoundTripsSentinels(t *testing.T) {
	sentinels := []error{
		projfs.ErrPathEscape,
		projfs.ErrEmptyInput,
		projfs.ErrNotFound,
		projfs.ErrNotADirectory,
		projfs.ErrAlreadyExists,
	}
	for _, sentinel := range sentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("create notes.txt: %w", sentinel)
			dto := NewErrorResponse(wrapped)
			assert.False(t, dto.OK)
			assert.Equal(t, wrapped.Error(), dto.Error)

			data, err := json.Marshal(dto)
			require.NoError(t, err)
			var back ErrorResponseDTO
			require.NoError(t, json.Unmarshal(data, &back))

			err = back.Err()
			assert.ErrorIs(t, err, sentinel)
			assert.Equal(t, wrapped.Error(), err.Error())
		})
	}

	dto := NewErrorResponse(errors.New("disk on fire"))
	assert.Equal(t, projfs.CodeInternal, dto.Code)
	assert.EqualError(t, dto.Err(), "disk on fire")
}
