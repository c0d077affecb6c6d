package store

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

// Level is a persistent KV backed by LevelDB.
type Level struct {
	db *leveldb.DB
}

// OpenLevel creates or opens a LevelDB database at path.
func OpenLevel(path string) (*Level, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Level{db: db}, nil
}

func (l *Level) Get(key string) ([]byte, bool, error) {
	v, err := l.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (l *Level) Put(key string, value []byte) error {
	return l.db.Put([]byte(key), value, nil)
}

func (l *Level) Close() error {
	return l.db.Close()
}
