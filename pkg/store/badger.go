package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chronodrachma/daasim/pkg/config"
	"github.com/chronodrachma/daasim/pkg/core/types"
)

var ErrRunNotFound = errors.New("run not found in store")

// RunMeta describes one archived run.
type RunMeta struct {
	ID              string
	Scenario        string
	CreatedAt       time.Time
	Config          config.SimulationConfig
	NumBlocks       int
	FinalDifficulty decimal.Decimal
	Digest          types.Hash
}

// RunStore archives finished simulation runs.
type RunStore interface {
	SaveRun(meta RunMeta, blocks []types.Block) error
	LoadRun(id string) (RunMeta, []types.Block, error)
	ListRuns() ([]RunMeta, error)
	GetBlock(id string, height uint64) (types.Block, error)
	Close() error
}

// BadgerStore implements RunStore using BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

var _ RunStore = (*BadgerStore)(nil)

// NewBadgerStore creates or opens a BadgerDB store at the given path.
// If path is empty, it opens an in-memory store.
func NewBadgerStore(path string, logger *zap.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	if logger == nil {
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(&badgerLogger{logger.Sugar().Named("badger")})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}

	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Keys:
// Run metadata: "run:meta:<id>" -> gob(RunMeta)
// Run block:    "run:block:<id>:<height>" -> gob(types.Block)

func metaKey(id string) []byte {
	return []byte(fmt.Sprintf("run:meta:%s", id))
}

func blockPrefix(id string) []byte {
	return []byte(fmt.Sprintf("run:block:%s:", id))
}

func blockKey(id string, height uint64) []byte {
	// Zero padded so keys sort by height.
	return []byte(fmt.Sprintf("run:block:%s:%020d", id, height))
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(val []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(val)).Decode(v)
}

// SaveRun stores the run metadata and every block. An existing run with the
// same ID is replaced.
func (s *BadgerStore) SaveRun(meta RunMeta, blocks []types.Block) error {
	if meta.ID == "" || strings.ContainsRune(meta.ID, ':') {
		return errors.Errorf("save run: invalid run id %q", meta.ID)
	}

	if err := s.deleteBlocks(meta.ID); err != nil {
		return errors.Wrap(err, "save run")
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range blocks {
		val, err := encode(&blocks[i])
		if err != nil {
			return errors.Wrapf(err, "save run: encode block %d", blocks[i].Height)
		}
		if err := wb.Set(blockKey(meta.ID, blocks[i].Height), val); err != nil {
			return errors.Wrap(err, "save run")
		}
	}

	val, err := encode(&meta)
	if err != nil {
		return errors.Wrap(err, "save run: encode meta")
	}
	if err := wb.Set(metaKey(meta.ID), val); err != nil {
		return errors.Wrap(err, "save run")
	}

	return errors.Wrap(wb.Flush(), "save run")
}

func (s *BadgerStore) deleteBlocks(id string) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = blockPrefix(id)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *BadgerStore) loadMeta(txn *badger.Txn, id string) (RunMeta, error) {
	var meta RunMeta
	item, err := txn.Get(metaKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return meta, errors.Wrapf(ErrRunNotFound, "run %s", id)
		}
		return meta, err
	}
	err = item.Value(func(val []byte) error {
		return decode(val, &meta)
	})
	return meta, err
}

// LoadRun returns the metadata and blocks of a run, genesis first.
func (s *BadgerStore) LoadRun(id string) (RunMeta, []types.Block, error) {
	var (
		meta   RunMeta
		blocks []types.Block
	)

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		meta, err = s.loadMeta(txn, id)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = blockPrefix(id)
		it := txn.NewIterator(opts)
		defer it.Close()

		blocks = make([]types.Block, 0, meta.NumBlocks+1)
		for it.Rewind(); it.Valid(); it.Next() {
			var b types.Block
			if err := it.Item().Value(func(val []byte) error {
				return decode(val, &b)
			}); err != nil {
				return err
			}
			blocks = append(blocks, b)
		}
		return nil
	})
	if err != nil {
		return RunMeta{}, nil, errors.Wrap(err, "load run")
	}
	return meta, blocks, nil
}

// ListRuns returns the metadata of every archived run, ordered by ID.
func (s *BadgerStore) ListRuns() ([]RunMeta, error) {
	var runs []RunMeta
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("run:meta:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var meta RunMeta
			if err := it.Item().Value(func(val []byte) error {
				return decode(val, &meta)
			}); err != nil {
				return err
			}
			runs = append(runs, meta)
		}
		return nil
	})
	return runs, errors.Wrap(err, "list runs")
}

// GetBlock returns one block of an archived run.
func (s *BadgerStore) GetBlock(id string, height uint64) (types.Block, error) {
	var block types.Block
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockKey(id, height))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return errors.Wrapf(ErrRunNotFound, "run %s block %d", id, height)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &block)
		})
	})
	return block, err
}

type badgerLogger struct {
	*zap.SugaredLogger
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
