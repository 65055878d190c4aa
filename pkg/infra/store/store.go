package store

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
)

var trackBucket = []byte("tracks")

// Store is the bbolt-backed track index. The stem and merge files on
// disk are the cache payload; this index is the authority on whether a
// track has been fully processed.
type Store struct {
	db     *bolt.DB
	layout *Layout
}

// Open opens (or creates) the index database at path
func Open(path string, layout *Layout) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open track index", goerr.V("path", path))
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(trackBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create track bucket")
	}

	return &Store{db: db, layout: layout}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close track index")
	}
	return nil
}

// Put writes a track row, overwriting any previous row with the same ID
func (s *Store) Put(ctx context.Context, track *model.Track) error {
	raw, err := json.Marshal(track)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal track", goerr.V("id", track.ID))
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(trackBucket).Put([]byte(track.ID), raw)
	}); err != nil {
		return goerr.Wrap(err, "failed to store track", goerr.V("id", track.ID))
	}

	return nil
}

// Get returns the track row for id, or nil when the track is unknown
func (s *Store) Get(ctx context.Context, id types.TrackID) (*model.Track, error) {
	var track *model.Track

	if err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(trackBucket).Get([]byte(id))
		if raw == nil {
			return nil
		}

		var t model.Track
		if err := json.Unmarshal(raw, &t); err != nil {
			return goerr.Wrap(err, "broken track row", goerr.V("id", id))
		}
		track = &t
		return nil
	}); err != nil {
		return nil, err
	}

	return track, nil
}

// List returns all known tracks
func (s *Store) List(ctx context.Context) ([]*model.Track, error) {
	var tracks []*model.Track

	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(trackBucket).ForEach(func(k, v []byte) error {
			var t model.Track
			if err := json.Unmarshal(v, &t); err != nil {
				return goerr.Wrap(err, "broken track row", goerr.V("id", string(k)))
			}
			tracks = append(tracks, &t)
			return nil
		})
	}); err != nil {
		return nil, err
	}

	return tracks, nil
}

// Delete removes the track row and its output directory. The uploaded
// input file is kept: re-submitting the same content will reuse it.
func (s *Store) Delete(ctx context.Context, id types.TrackID) error {
	logger := ctxlog.From(ctx)

	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(trackBucket).Delete([]byte(id))
	}); err != nil {
		return goerr.Wrap(err, "failed to delete track row", goerr.V("id", id))
	}

	outDir := s.layout.OutputDir(id)
	if err := os.RemoveAll(outDir); err != nil {
		return goerr.Wrap(err, "failed to remove output dir", goerr.V("dir", outDir))
	}

	logger.Info("Purged track", "id", id, "output_dir", outDir)
	return nil
}
