// Package bolt implements the records.Store contract on bbolt. Records are
// keyed by their big-endian ASN, so bucket key uniqueness is the dedup
// constraint and a forward cursor yields ascending-ASN order.
package bolt

import (
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bbolt "go.etcd.io/bbolt"

	"github.com/asmap/asdird/internal/asdir/domain"
	"github.com/asmap/asdird/internal/asdir/repos/records"
)

var bucketRecords = []byte("asns")

type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures the records
// bucket exists.
func New(path string) (records.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

func asnKey(asn uint32) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, asn)
	return k
}

func (s *boltStore) Get(asn uint32) (domain.AsRecord, error) {
	var rec domain.AsRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketRecords).Get(asnKey(asn))
		if v == nil {
			return records.ErrNotFound
		}
		return msgpack.Unmarshal(v, &rec)
	})
	if err != nil {
		return domain.AsRecord{}, err
	}
	return rec, nil
}

func (s *boltStore) GetMany(asns []uint32) ([]domain.AsRecord, uint64, error) {
	sorted := make([]uint32, len(asns))
	copy(sorted, asns)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var out []domain.AsRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		var prev uint32
		for i, asn := range sorted {
			if i > 0 && asn == prev {
				continue
			}
			prev = asn
			v := b.Get(asnKey(asn))
			if v == nil {
				continue
			}
			var rec domain.AsRecord
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding record %d: %w", asn, err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, uint64(len(out)), nil
}

func (s *boltStore) GetPage(pred records.Predicate, skip, limit int) ([]domain.AsRecord, uint64, error) {
	var (
		out   []domain.AsRecord
		total uint64
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		matched := 0
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec domain.AsRecord
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding record %x: %w", k, err)
			}
			if pred != nil && !pred(&rec) {
				continue
			}
			total++
			if matched >= skip && (limit < 0 || len(out) < limit) {
				out = append(out, rec)
			}
			matched++
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *boltStore) Count(pred records.Predicate) (uint64, error) {
	var total uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		if pred == nil {
			total = uint64(b.Stats().KeyN)
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec domain.AsRecord
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding record %x: %w", k, err)
			}
			if pred(&rec) {
				total++
			}
		}
		return nil
	})
	return total, err
}

func (s *boltStore) InsertMany(recs []domain.AsRecord) (records.InsertResult, error) {
	var res records.InsertResult
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		for i := range recs {
			k := asnKey(recs[i].ASN)
			if b.Get(k) != nil {
				res.Duplicates++
				continue
			}
			v, err := msgpack.Marshal(&recs[i])
			if err != nil {
				return fmt.Errorf("encoding record %d: %w", recs[i].ASN, err)
			}
			if err := b.Put(k, v); err != nil {
				return fmt.Errorf("writing record %d: %w", recs[i].ASN, err)
			}
			res.Inserted++
		}
		return nil
	})
	if err != nil {
		return records.InsertResult{}, err
	}
	return res, nil
}

func (s *boltStore) MergeUpdate(asn uint32, patch records.Patch) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		k := asnKey(asn)

		rec := domain.AsRecord{ASN: asn}
		if v := b.Get(k); v != nil {
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding record %d: %w", asn, err)
			}
		}
		if patch.Rank != nil {
			rank := *patch.Rank
			rec.Rank = &rank
		}
		if patch.Registry != nil {
			reg := *patch.Registry
			rec.Registry = &reg
		}
		if patch.Categories != nil {
			rec.Categories = append([]domain.Category(nil), (*patch.Categories)...)
		}

		v, err := msgpack.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", asn, err)
		}
		return b.Put(k, v)
	})
}

func (s *boltStore) ASNs() ([]uint32, error) {
	var out []uint32
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			out = append(out, binary.BigEndian.Uint32(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear drops the records bucket and recreates it. Safe to call multiple
// times in a row.
func (s *boltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketRecords); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
}
