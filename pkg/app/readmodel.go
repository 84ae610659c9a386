package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/embed"
	"github.com/shedrachokonofua/lute-sub001/pkg/eventlog"
	"github.com/shedrachokonofua/lute-sub001/pkg/index"
	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

// readModelStore is a local stand-in for the relational read-model
// tables spec.md §1 lists as an external collaborator, backed by the
// same Index a real deployment would front with Postgres. It satisfies
// embed.ReadModelSource so EmbedCore's job has something concrete to
// read candidates from.
type readModelStore struct {
	index *index.Index
}

func newReadModelStore(idx *index.Index) *readModelStore {
	return &readModelStore{index: idx}
}

func readModelKey(fileName types.FileName) string {
	return fileName.String()
}

func (r *readModelStore) put(model types.AlbumReadModel) error {
	return r.index.Upsert(embed.AlbumCollection, readModelKey(model.FileName), model, map[string]any{
		"genres": model.Genres,
		"text":   model.Name,
	})
}

// ListAlbums implements embed.ReadModelSource by scanning every row
// currently projected into the albums collection.
func (r *readModelStore) ListAlbums(_ context.Context) ([]types.AlbumReadModel, error) {
	docs, err := r.index.Search(embed.AlbumCollection, index.Filter{}, 0, 0)
	if err != nil {
		return nil, err
	}
	models := make([]types.AlbumReadModel, 0, len(docs))
	for _, doc := range docs {
		var model types.AlbumReadModel
		if err := json.Unmarshal(doc.Payload, &model); err != nil {
			return nil, luterr.Fatal("decode album read model", err)
		}
		models = append(models, model)
	}
	return models, nil
}

// projector is the subscriber that turns FileParsed album variants into
// AlbumReadModel rows, standing in for whatever downstream service would
// normally own this projection in a full deployment (spec.md §2's data
// flow treats it as happening "outside" the core fabric, but something
// has to populate ReadModelSource for EmbedCore to have candidates).
type projector struct {
	store *readModelStore
}

func newProjector(store *readModelStore) *projector {
	return &projector{store: store}
}

// Handle implements eventlog.Handler against TopicParser.
func (p *projector) Handle(_ context.Context, entries []types.EventEntry) error {
	for _, entry := range entries {
		if entry.Payload.Event.Kind != types.EventFileParsed {
			continue
		}
		parsed := entry.Payload.Event.FileParsed
		if parsed == nil || parsed.Album == nil {
			continue
		}
		if err := p.store.put(albumReadModelFrom(*parsed.Album)); err != nil {
			return err
		}
	}
	return nil
}

func albumReadModelFrom(album types.ParsedAlbum) types.AlbumReadModel {
	artistNames := make([]string, len(album.Artists))
	for i, a := range album.Artists {
		artistNames[i] = a.Name
	}
	return types.AlbumReadModel{
		FileName:    album.FileName,
		Name:        album.Name,
		ArtistNames: artistNames,
		Genres:      album.Genres,
		Descriptors: album.Descriptors,
		RatingCount: album.RatingCount,
		AvgRating:   album.AvgRating,
		UpdatedAt:   time.Now(),
	}
}

func (p *projector) asHandler() eventlog.Handler {
	return p.Handle
}
