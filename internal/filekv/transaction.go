package filekv

import (
	"errors"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"
)

const PROGRAM_KEY_SEPARATOR = ":"

// worldTx gives access to the bucket of a world during a bbolt transaction.
// Program entries are keyed by their zero-padded position followed by their name, bbolt iterates keys in byte
// order so entries are read back in the order they were stored.
type worldTx struct {
	tx     *bbolt.Tx
	bucket *bbolt.Bucket
}

// newWorldTx returns nil if the world has no bucket and replace is false. If replace is true the bucket
// of the world is recreated empty.
func newWorldTx(tx *bbolt.Tx, world string, replace bool) (*worldTx, error) {
	if world == "" {
		return nil, errors.New("empty world name")
	}

	worlds := tx.Bucket(BBOLT_WORLDS_BUCKET)
	name := []byte(world)

	if !replace {
		bucket := worlds.Bucket(name)
		if bucket == nil {
			return nil, nil
		}
		return &worldTx{tx: tx, bucket: bucket}, nil
	}

	err := worlds.DeleteBucket(name)
	if err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil, err
	}
	bucket, err := worlds.CreateBucket(name)
	if err != nil {
		return nil, err
	}
	return &worldTx{tx: tx, bucket: bucket}, nil
}

func programKey(index int, name string) []byte {
	return []byte(fmt.Sprintf("%08d%s%s", index, PROGRAM_KEY_SEPARATOR, name))
}

func (tx *worldTx) put(index int, name string, data []byte) error {
	return tx.bucket.Put(programKey(index, name), data)
}

// forEach calls fn for each program entry, value is only valid during the call.
func (tx *worldTx) forEach(fn func(name string, value []byte) error) error {
	return tx.bucket.ForEach(func(k, v []byte) error {
		_, name, ok := strings.Cut(string(k), PROGRAM_KEY_SEPARATOR)
		if !ok || v == nil {
			return fmt.Errorf("%w: invalid key %q", ErrCorruptedEntry, k)
		}
		return fn(name, v)
	})
}
