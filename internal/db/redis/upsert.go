package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/askdex/internal/db"
)

// vectorField is the hash field holding the binary embedding blob.
const vectorField = "__vector"

// BulkUpsert writes records as hashes in a single DoMulti round-trip,
// reporting success or failure per record. Records without an ID get one
// assigned here; existing keys are replaced wholesale.
func (s *Store) BulkUpsert(ctx context.Context, index string, records []db.Record) (*db.BulkResult, error) {
	if len(records) == 0 {
		return &db.BulkResult{}, nil
	}

	res := &db.BulkResult{Results: make([]db.UpsertResult, len(records))}

	cmds := make([]rueidis.Completed, 0, len(records)*2)
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		key := keyPrefixFor(index) + records[i].ID

		// DEL before HSET: upsert replaces the whole record, leftover
		// fields from a previous write must not survive.
		cmds = append(cmds, s.b().Del().Key(key).Build())

		cmd := s.b().Hset().Key(key).FieldValue()
		cmd = cmd.FieldValue(vectorField, vectorToBytes(records[i].Vector))
		for k, v := range records[i].Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds = append(cmds, cmd.Build())
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i := range records {
		res.Results[i].ID = records[i].ID
		// Commands alternate DEL, HSET per record; the HSET outcome decides.
		if err := results[i*2+1].Error(); err != nil {
			res.Results[i].Err = &db.Error{Op: db.OpHSet, Err: fmt.Errorf("record %s: %w", records[i].ID, err)}
			res.Failed++
			continue
		}
		res.Succeeded++
	}

	return res, nil
}

// keyPrefixFor derives the record key prefix from an index name.
// Index "askdex:questions:idx" owns keys "askdex:questions:<id>".
func keyPrefixFor(index string) string {
	const idxSuffix = ":idx"
	if strings.HasSuffix(index, idxSuffix) {
		return strings.TrimSuffix(index, "idx")
	}
	return index + ":"
}

// vectorToBytes serializes []float32 to the little-endian binary format
// FT.SEARCH expects for FLOAT32 vector fields.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
