package filekv

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"
)

const (
	KV_STORE_SRC_NAME = "/kv"

	//version of the layout of the buckets and of the program entries.
	FORMAT_VERSION = "1.0.0"
	//versions that this package can read.
	SUPPORTED_FORMAT_VERSIONS = "^1.0.0"

	DEFAULT_OPEN_TIMEOUT = time.Second
)

var (
	BBOLT_META_BUCKET   = []byte("meta")
	BBOLT_WORLDS_BUCKET = []byte("worlds")
	FORMAT_VERSION_KEY  = []byte("format-version")

	ErrStoreClosed       = errors.New("store is closed")
	ErrUnsupportedFormat = errors.New("unsupported store format")
	ErrCorruptedEntry    = errors.New("corrupted program entry")

	supportedFormatVersions = mustParseConstraint(SUPPORTED_FORMAT_VERSIONS)

	_ core.ProgramStore = (*SingleFileKV)(nil)
)

// SingleFileKV persists the programs of worlds in a single bbolt file, each world has its own bucket
// inside the worlds bucket. Program blobs are compressed with zstd.
type SingleFileKV struct {
	db      *bbolt.DB
	path    string
	logger  zerolog.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	closed  atomic.Bool
}

type KvStoreConfig struct {
	Path   string
	Logger zerolog.Logger

	//maximum time to wait for the file lock, defaults to DEFAULT_OPEN_TIMEOUT.
	OpenTimeout time.Duration
}

func OpenSingleFileKV(config KvStoreConfig) (_ *SingleFileKV, finalErr error) {
	timeout := config.OpenTimeout
	if timeout <= 0 {
		timeout = DEFAULT_OPEN_TIMEOUT
	}

	db, err := bbolt.Open(config.Path, 0600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.Path, err)
	}

	defer func() {
		if finalErr != nil {
			db.Close()
		}
	}()

	if err := db.Update(initBuckets); err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, err
	}

	kv := &SingleFileKV{
		db:      db,
		path:    config.Path,
		logger:  core.ChildLoggerForSource(config.Logger, KV_STORE_SRC_NAME),
		encoder: encoder,
		decoder: decoder,
	}
	kv.logger.Debug().Str("path", config.Path).Msg("KV store opened")
	return kv, nil
}

// initBuckets creates the buckets of a new file and checks the format version of an existing one.
func initBuckets(tx *bbolt.Tx) error {
	meta, err := tx.CreateBucketIfNotExists(BBOLT_META_BUCKET)
	if err != nil {
		return err
	}

	if version := meta.Get(FORMAT_VERSION_KEY); version != nil {
		if err := checkFormatVersion(string(version)); err != nil {
			return err
		}
	} else if err := meta.Put(FORMAT_VERSION_KEY, []byte(FORMAT_VERSION)); err != nil {
		return err
	}

	_, err = tx.CreateBucketIfNotExists(BBOLT_WORLDS_BUCKET)
	return err
}

func checkFormatVersion(s string) error {
	version, err := semver.NewVersion(s)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q", ErrUnsupportedFormat, s)
	}
	if !supportedFormatVersions.Check(version) {
		return fmt.Errorf("%w: version %s does not satisfy %s", ErrUnsupportedFormat, version, SUPPORTED_FORMAT_VERSIONS)
	}
	return nil
}

func (kv *SingleFileKV) Path() string {
	return kv.path
}

// FormatVersion returns the format version stored in the file.
func (kv *SingleFileKV) FormatVersion() (*semver.Version, error) {
	if kv.isClosed() {
		return nil, ErrStoreClosed
	}

	var version *semver.Version
	err := kv.db.View(func(tx *bbolt.Tx) error {
		var err error
		version, err = semver.NewVersion(string(tx.Bucket(BBOLT_META_BUCKET).Get(FORMAT_VERSION_KEY)))
		return err
	})
	return version, err
}

// ReplaceWorld replaces all the programs of a world in a single transaction.
func (kv *SingleFileKV) ReplaceWorld(world string, programs []core.StoredProgram) error {
	if kv.isClosed() {
		return ErrStoreClosed
	}

	err := kv.db.Update(func(tx *bbolt.Tx) error {
		worldTx, err := newWorldTx(tx, world, true)
		if err != nil {
			return err
		}
		for i, p := range programs {
			if err := worldTx.put(i, p.Name, kv.encoder.EncodeAll(p.Data, nil)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save world %s: %w", world, err)
	}

	kv.logger.Debug().Str(core.WORLD_LOG_FIELD_NAME, world).Int("count", len(programs)).Msg("world saved")
	return nil
}

// LoadWorld returns the programs of a world in the order they were stored, a world that was never saved has
// no programs.
func (kv *SingleFileKV) LoadWorld(world string) ([]core.StoredProgram, error) {
	if kv.isClosed() {
		return nil, ErrStoreClosed
	}

	var programs []core.StoredProgram
	err := kv.db.View(func(tx *bbolt.Tx) error {
		worldTx, err := newWorldTx(tx, world, false)
		if err != nil || worldTx == nil {
			return err
		}
		return worldTx.forEach(func(name string, compressed []byte) error {
			data, err := kv.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrCorruptedEntry, name, err)
			}
			programs = append(programs, core.StoredProgram{Name: name, Data: data})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load world %s: %w", world, err)
	}
	return programs, nil
}

// Worlds returns the names of the saved worlds in byte order.
func (kv *SingleFileKV) Worlds() ([]string, error) {
	if kv.isClosed() {
		return nil, ErrStoreClosed
	}

	var names []string
	err := kv.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(BBOLT_WORLDS_BUCKET).ForEachBucket(func(k []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// DeleteWorld removes the programs of a world, it does nothing if the world was never saved.
func (kv *SingleFileKV) DeleteWorld(world string) error {
	if kv.isClosed() {
		return ErrStoreClosed
	}

	return kv.db.Update(func(tx *bbolt.Tx) error {
		err := tx.Bucket(BBOLT_WORLDS_BUCKET).DeleteBucket([]byte(world))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

func (kv *SingleFileKV) Close() error {
	if !kv.closed.CompareAndSwap(false, true) {
		return nil
	}

	kv.logger.Debug().Msg("close KV store")
	kv.decoder.Close()
	return errors.Join(kv.encoder.Close(), kv.db.Close())
}

func (kv *SingleFileKV) isClosed() bool {
	return kv.closed.Load()
}

func mustParseConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}
