package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned for documents not present in a store.
var ErrNotFound = errors.New("document not found")

var (
	bucketDocuments = []byte("documents")
	bucketNodes     = []byte("nodes")
	keySelection    = []byte("selection")
)

// Option is a type to help configuring a store.
type Option struct {
	config func(*bolt.Options)
}

// Timeout sets how long Open waits for the file lock of a database held by
// another process. The default is to wait 1 second.
func Timeout(d time.Duration) Option {
	return Option{config: func(o *bolt.Options) {
		o.Timeout = d
	}}
}

// ReadOnly opens a database without write access. Save and Delete will fail.
func ReadOnly() Option {
	return Option{config: func(o *bolt.Options) {
		o.ReadOnly = true
	}}
}

// Store is a database of named documents. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database file at path.
func Open(path string, opts ...Option) (*Store, error) {
	o := &bolt.Options{Timeout: time.Second}
	for _, option := range opts {
		option.config(o)
	}
	db, err := bolt.Open(path, 0600, o)
	if err != nil {
		return nil, fmt.Errorf("cannot open store %s: %w", path, err)
	}
	if !o.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketDocuments)
			return err
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	tracer().Infof("opened store %s", path)
	return &Store{db: db}, nil
}

// Close closes the database.
func (st *Store) Close() error {
	return st.db.Close()
}

// Path returns the file path of the database.
func (st *Store) Path() string {
	return st.db.Path()
}

// Save writes a snapshot under a document name, replacing a document saved
// before under the same name.
func (st *Store) Save(name string, s *state.Snapshot) error {
	if name == "" {
		return errors.New("cannot save document without a name")
	}
	doc := s.Export()
	sel, err := json.Marshal(s.Selection())
	if err != nil {
		return err
	}
	err = st.db.Update(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		if docs.Bucket([]byte(name)) != nil {
			if err := docs.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		b, err := docs.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		nodes, err := b.CreateBucket(bucketNodes)
		if err != nil {
			return err
		}
		for k, f := range doc {
			value, err := json.Marshal(f)
			if err != nil {
				return fmt.Errorf("cannot encode node %s: %w", k, err)
			}
			if err := nodes.Put([]byte(k), value); err != nil {
				return err
			}
		}
		return b.Put(keySelection, sel)
	})
	if err != nil {
		return fmt.Errorf("cannot save document %q: %w", name, err)
	}
	tracer().Debugf("saved document %q, %d nodes", name, len(doc))
	return nil
}

// Load reads a document and restores it as a snapshot. The snapshot has
// version 0; publish it with editor.SetState or create an editor from it.
func (st *Store) Load(name string) (*state.Snapshot, error) {
	doc := make(state.Document)
	var sel *state.Selection
	err := st.db.View(func(tx *bolt.Tx) error {
		var b *bolt.Bucket
		if docs := tx.Bucket(bucketDocuments); docs != nil {
			b = docs.Bucket([]byte(name))
		}
		if b == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if data := b.Get(keySelection); data != nil {
			if err := json.Unmarshal(data, &sel); err != nil {
				return fmt.Errorf("cannot decode selection: %w", err)
			}
		}
		nodes := b.Bucket(bucketNodes)
		if nodes == nil {
			return fmt.Errorf("%w: document %q has no nodes", state.ErrMalformedTree, name)
		}
		return nodes.ForEach(func(k, v []byte) error {
			var f node.Fields
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("cannot decode node %s: %w", k, err)
			}
			doc[node.Key(k)] = f
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s, err := state.Import(doc, sel)
	if err != nil {
		return nil, fmt.Errorf("cannot load document %q: %w", name, err)
	}
	tracer().Debugf("loaded document %q, %d nodes", name, len(doc))
	return s, nil
}

// List returns the names of all documents, sorted.
func (st *Store) List() ([]string, error) {
	var names []string
	err := st.db.View(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		if docs == nil {
			return nil
		}
		return docs.ForEachBucket(func(k []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Delete removes a document.
func (st *Store) Delete(name string) error {
	return st.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketDocuments).DeleteBucket([]byte(name))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return err
	})
}
