package parser

import (
	"testing"

	"github.com/shedrachokonofua/lute-sub001/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func albumFileName(t *testing.T, value string) types.FileName {
	t.Helper()
	fn, err := types.NewFileName(types.FileKindAlbum, value)
	require.NoError(t, err)
	return fn
}

func TestDispatchUnsupportedKindProducesFileParseFailed(t *testing.T) {
	r := NewRegistry()
	artistFileName, err := types.NewFileName(types.FileKindArtist, "radiohead")
	require.NoError(t, err)

	event := r.Dispatch(artistFileName, []byte("<html></html>"))

	assert.Equal(t, types.EventFileParseFailed, event.Kind)
	require.NotNil(t, event.FileParseFailed)
	assert.Equal(t, artistFileName, event.FileParseFailed.FileName)
}

func TestDispatchSuccessProducesFileParsed(t *testing.T) {
	r := NewRegistry()
	r.Register(types.FileKindAlbum, func(fileName types.FileName, data []byte) (types.Event, error) {
		return types.Event{
			Kind: types.EventFileParsed,
			FileParsed: &types.FileParsed{
				FileName: fileName,
				Album:    &types.ParsedAlbum{FileName: fileName, Name: string(data)},
			},
		}, nil
	})

	fileName := albumFileName(t, "abbey-road")
	event := r.Dispatch(fileName, []byte("Abbey Road"))

	require.Equal(t, types.EventFileParsed, event.Kind)
	require.NotNil(t, event.FileParsed)
	require.NotNil(t, event.FileParsed.Album)
	assert.Equal(t, "Abbey Road", event.FileParsed.Album.Name)
}

func TestDispatchParserErrorProducesFileParseFailed(t *testing.T) {
	r := NewRegistry()
	r.Register(types.FileKindAlbum, func(fileName types.FileName, data []byte) (types.Event, error) {
		return types.Event{}, assert.AnError
	})

	fileName := albumFileName(t, "abbey-road")
	event := r.Dispatch(fileName, []byte("garbled"))

	assert.Equal(t, types.EventFileParseFailed, event.Kind)
	require.NotNil(t, event.FileParseFailed)
	assert.Contains(t, event.FileParseFailed.Reason, assert.AnError.Error())
}

func TestRegisterReplacesPreviousParser(t *testing.T) {
	r := NewRegistry()
	r.Register(types.FileKindChart, func(fileName types.FileName, data []byte) (types.Event, error) {
		return types.Event{Kind: types.EventFileParsed, FileParsed: &types.FileParsed{FileName: fileName, Chart: &types.ParsedChart{FileName: fileName, Name: "v1"}}}, nil
	})
	r.Register(types.FileKindChart, func(fileName types.FileName, data []byte) (types.Event, error) {
		return types.Event{Kind: types.EventFileParsed, FileParsed: &types.FileParsed{FileName: fileName, Chart: &types.ParsedChart{FileName: fileName, Name: "v2"}}}, nil
	})

	fileName, err := types.NewFileName(types.FileKindChart, "top-100")
	require.NoError(t, err)
	event := r.Dispatch(fileName, nil)
	require.NotNil(t, event.FileParsed)
	require.NotNil(t, event.FileParsed.Chart)
	assert.Equal(t, "v2", event.FileParsed.Chart.Name)
}
