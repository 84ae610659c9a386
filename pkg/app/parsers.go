package app

import (
	"encoding/json"

	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

// albumDocument is the shape the album parser expects its input bytes to
// already be in. Scraping a real release page into this shape is the
// HTML-parsing concern spec.md §1 excludes; registering a parser that
// consumes an already-structured document keeps Parser Dispatch exercised
// end-to-end without reimplementing a scraper here.
type albumDocument struct {
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Genres      []string `json:"genres"`
	Descriptors []string `json:"descriptors"`
	RatingCount int      `json:"rating_count"`
	AvgRating   float64  `json:"avg_rating"`
}

func parseAlbum(fileName types.FileName, data []byte) (types.Event, error) {
	var doc albumDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.Event{}, luterr.Validation("decode album document", err)
	}
	if doc.Name == "" {
		return types.Event{}, luterr.Validation("album document missing name", nil)
	}

	artists := make([]types.ParsedArtistReference, len(doc.Artists))
	for i, name := range doc.Artists {
		artists[i] = types.ParsedArtistReference{Name: name}
	}

	return types.Event{
		Kind: types.EventFileParsed,
		FileParsed: &types.FileParsed{
			FileName: fileName,
			Album: &types.ParsedAlbum{
				FileName:    fileName,
				Name:        doc.Name,
				Artists:     artists,
				Genres:      doc.Genres,
				Descriptors: doc.Descriptors,
				RatingCount: doc.RatingCount,
				AvgRating:   doc.AvgRating,
			},
		},
	}, nil
}
