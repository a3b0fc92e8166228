package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/parallel"
)

// MarshalCache encodes idx as a single JSON object keyed by package name.
// Members are emitted in name order, one per line:
//
//	{"bar":{"v":"1.0.0"},
//	"foo":{"d":"a foo","v":"0.2.1"}}
//
// Records are encoded in parallel.
func MarshalCache(ctx context.Context, idx *Index, workers int) ([]byte, error) {
	members, err := parallel.Map(ctx, workers, idx.Sorted(), func(_ context.Context, r *crate.Record) ([]byte, error) {
		key, err := encodeJSON(r.Name)
		if err != nil {
			return nil, fmt.Errorf("encode name %q: %w", r.Name, err)
		}
		value, err := encodeJSON(r)
		if err != nil {
			return nil, fmt.Errorf("encode record %q: %w", r.Name, err)
		}
		member := make([]byte, 0, len(key)+1+len(value))
		member = append(member, key...)
		member = append(member, ':')
		return append(member, value...), nil
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.Write(bytes.Join(members, []byte(",\n")))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeJSON is json.Marshal without HTML escaping, so descriptions such
// as "<T> & co" stay readable in the cache.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalCache decodes a cache produced by MarshalCache. Every record must
// satisfy the record invariants.
func UnmarshalCache(data []byte) (*Index, error) {
	var raw map[string]crate.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode cache: not a JSON object")
	}

	records := make([]crate.Record, 0, len(raw))
	for name, r := range raw {
		r.Name = name
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("decode cache: %w", err)
		}
		records = append(records, r)
	}
	return New(records)
}
