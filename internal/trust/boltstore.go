package trust

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// schemaVersion is bumped whenever the on-disk score record layout changes.
// Restore rejects a backup whose version does not match (spec §6.3).
const schemaVersion uint32 = 1

var bucketScores = []byte("scores")
var bucketMeta = []byte("meta")
var keySchemaVersion = []byte("schema_version")

// BoltStore persists trust scores in an embedded bbolt database, giving the
// Trust Manager the atomic read-modify-write and versioned snapshot support
// spec §4.1/§6.3 require without depending on a networked database engine.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if absent) a bbolt-backed trust store at
// path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening trust store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketScores); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if meta.Get(keySchemaVersion) == nil {
			buf := make([]byte, 4)
			binary.BigEndian.PutUint32(buf, schemaVersion)
			return meta.Put(keySchemaVersion, buf)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing trust store schema: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Load implements Store.
func (b *BoltStore) Load(agent uuid.UUID) (Score, bool, error) {
	var score Score
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketScores).Get(agent[:])
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &score)
	})
	return score, found, err
}

// Save implements Store, committing the update atomically within a single
// bbolt transaction (spec §4.1 "any update is durably committed before
// acknowledging").
func (b *BoltStore) Save(agent uuid.UUID, score Score) error {
	raw, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("marshaling trust score: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketScores).Put(agent[:], raw)
	})
}

// All implements Store.
func (b *BoltStore) All() (map[uuid.UUID]Score, error) {
	out := make(map[uuid.UUID]Score)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketScores).ForEach(func(k, v []byte) error {
			agent, err := uuid.FromBytes(k)
			if err != nil {
				return err
			}
			var score Score
			if err := json.Unmarshal(v, &score); err != nil {
				return err
			}
			out[agent] = score
			return nil
		})
	})
	return out, err
}

// backupFile is the self-contained, checksummed snapshot format written by
// Backup and read by Restore (spec §6.3: "Backup is a self-contained file
// carrying schema version and checksum; restore rejects mismatched schema
// without an explicit migration").
type backupFile struct {
	SchemaVersion uint32                 `json:"schema_version"`
	Scores        map[string]Score       `json:"scores"`
	Checksum      string                 `json:"checksum"`
}

func (b *BoltStore) snapshot() (backupFile, error) {
	all, err := b.All()
	if err != nil {
		return backupFile{}, err
	}
	scores := make(map[string]Score, len(all))
	for agent, score := range all {
		scores[agent.String()] = score
	}
	bf := backupFile{SchemaVersion: schemaVersion, Scores: scores}
	bf.Checksum = checksumOf(bf.Scores)
	return bf, nil
}

func checksumOf(scores map[string]Score) string {
	// Canonicalize via JSON re-marshal of sorted keys would require extra
	// bookkeeping; json.Marshal on a Go map already sorts string keys, so a
	// single marshal is already a stable canonical form.
	raw, _ := json.Marshal(scores)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%x", sum)
}

// Backup implements Store.
func (b *BoltStore) Backup(path string) error {
	bf, err := b.snapshot()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(bf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0600)
}

// Restore implements Store. It replaces every score currently in the store
// with the backup's contents inside a single transaction.
func (b *BoltStore) Restore(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading trust backup: %w", err)
	}
	var bf backupFile
	if err := json.Unmarshal(raw, &bf); err != nil {
		return fmt.Errorf("parsing trust backup: %w", err)
	}
	if bf.SchemaVersion != schemaVersion {
		return fmt.Errorf("trust backup schema version %d does not match current %d (migration required)", bf.SchemaVersion, schemaVersion)
	}
	if want, got := bf.Checksum, checksumOf(bf.Scores); !bytes.Equal([]byte(want), []byte(got)) {
		return fmt.Errorf("trust backup checksum mismatch: corrupted file")
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketScores); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		bucket, err := tx.CreateBucket(bucketScores)
		if err != nil {
			return err
		}
		for idStr, score := range bf.Scores {
			agent, err := uuid.Parse(idStr)
			if err != nil {
				return err
			}
			raw, err := json.Marshal(score)
			if err != nil {
				return err
			}
			if err := bucket.Put(agent[:], raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close implements Store.
func (b *BoltStore) Close() error {
	return b.db.Close()
}
