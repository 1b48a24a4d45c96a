package memengine

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/calvinalkan/mvccscan/pkg/mvcc"
	"github.com/calvinalkan/mvccscan/pkg/mvcckv"
)

// Fixture is the serialization schema for a Snapshot: one entry per user
// key, its write-CF version history, and an optional lock. internal/fixture
// parses this shape out of a hujson document; Snapshot.ToFixture produces
// one back out for dumping.
type Fixture struct {
	Keys []KeyFixture `json:"keys"`
}

// KeyFixture is one user key's write history and optional lock.
type KeyFixture struct {
	// KeyHex is the hex encoding of the raw user key bytes.
	KeyHex   string         `json:"key_hex"`
	Versions []WriteFixture `json:"versions"`
	Lock     *LockFixture   `json:"lock,omitempty"`
}

// WriteFixture is one version in a user key's history.
type WriteFixture struct {
	CommitTS uint64 `json:"commit_ts"`
	// Kind is one of "put", "delete", "lock", "rollback".
	Kind string `json:"kind"`
	// StartTS is only meaningful for put/delete.
	StartTS uint64 `json:"start_ts"`
	// ShortValueHex is the inline value, hex-encoded. Nil means the value
	// is out-of-line; see DefaultValueHex.
	ShortValueHex *string `json:"short_value_hex,omitempty"`
	// DefaultValueHex is the value to place in the default CF at
	// (key, start_ts), used when ShortValueHex is nil for a put.
	DefaultValueHex *string `json:"default_value_hex,omitempty"`
}

// LockFixture describes the at-most-one lock CF entry for a key.
type LockFixture struct {
	StartTS uint64 `json:"start_ts"`
	// PrimaryHex is the primary-key pointer, hex-encoded. If empty, Build
	// stamps a synthetic pointer generated with uuid.NewString, mirroring
	// how a caller with no real primary would still need a placeholder
	// answer for "who owns this lock".
	PrimaryHex string `json:"primary_hex,omitempty"`
}

var writeKindByName = map[string]mvcc.WriteKind{
	"put":      mvcc.WriteKindPut,
	"delete":   mvcc.WriteKindDelete,
	"lock":     mvcc.WriteKindLock,
	"rollback": mvcc.WriteKindRollback,
}

var writeNameByKind = map[mvcc.WriteKind]string{
	mvcc.WriteKindPut:      "put",
	mvcc.WriteKindDelete:   "delete",
	mvcc.WriteKindLock:     "lock",
	mvcc.WriteKindRollback: "rollback",
}

// Build constructs a Snapshot from a Fixture.
func Build(f Fixture) (*Snapshot, error) {
	s := newSnapshot()
	for _, kf := range f.Keys {
		key, err := hex.DecodeString(kf.KeyHex)
		if err != nil {
			return nil, fmt.Errorf("memengine: key_hex %q: %w", kf.KeyHex, err)
		}
		for _, wf := range kf.Versions {
			kind, ok := writeKindByName[wf.Kind]
			if !ok {
				return nil, fmt.Errorf("memengine: unknown write kind %q", wf.Kind)
			}
			var shortValue []byte
			if wf.ShortValueHex != nil {
				shortValue, err = hex.DecodeString(*wf.ShortValueHex)
				if err != nil {
					return nil, fmt.Errorf("memengine: short_value_hex: %w", err)
				}
			}
			writeKey := mvcc.Encode(key, wf.CommitTS)
			writeVal := mvcc.EncodeWriteRecord(kind, wf.StartTS, shortValue)
			s.put(mvcckv.CFWrite, writeKey, writeVal)

			if kind == mvcc.WriteKindPut && shortValue == nil && wf.DefaultValueHex != nil {
				defaultValue, err := hex.DecodeString(*wf.DefaultValueHex)
				if err != nil {
					return nil, fmt.Errorf("memengine: default_value_hex: %w", err)
				}
				s.put(mvcckv.CFDefault, mvcc.Encode(key, wf.StartTS), defaultValue)
			}
		}
		if kf.Lock != nil {
			primaryHex := kf.Lock.PrimaryHex
			var primary []byte
			if primaryHex == "" {
				primary = []byte(uuid.NewString())
			} else {
				var err error
				primary, err = hex.DecodeString(primaryHex)
				if err != nil {
					return nil, fmt.Errorf("memengine: primary_hex: %w", err)
				}
			}
			s.put(mvcckv.CFLock, key, mvcc.EncodeLockRecord(kf.Lock.StartTS, primary))
		}
	}
	s.sortAll()
	return s, nil
}

// ToFixture reconstructs the Fixture representation of the current
// snapshot contents, for dumping and inspection. Default-CF values are
// inlined as DefaultValueHex keyed by matching start_ts; lock primaries are
// always emitted (never re-synthesized).
func (s *Snapshot) ToFixture() (Fixture, error) {
	defaultByKey := map[string][]byte{}
	for _, e := range s.cfs[mvcckv.CFDefault] {
		defaultByKey[string(e.key)] = e.value
	}
	byUser := map[string]*KeyFixture{}
	order := make([]string, 0)
	for _, e := range s.cfs[mvcckv.CFWrite] {
		userKey, err := mvcc.TruncateTS(e.key)
		if err != nil {
			return Fixture{}, err
		}
		ts, err := mvcc.DecodeTS(e.key)
		if err != nil {
			return Fixture{}, err
		}
		rec, err := mvcc.ParseWriteRecord(e.value)
		if err != nil {
			return Fixture{}, err
		}
		k := string(userKey)
		kf, ok := byUser[k]
		if !ok {
			kf = &KeyFixture{KeyHex: hex.EncodeToString(userKey)}
			byUser[k] = kf
			order = append(order, k)
		}
		wf := WriteFixture{CommitTS: ts, Kind: writeNameByKind[rec.Kind], StartTS: rec.StartTS}
		if rec.Kind == mvcc.WriteKindPut {
			if rec.ShortValue != nil {
				sv := hex.EncodeToString(rec.ShortValue)
				wf.ShortValueHex = &sv
			} else if dv, ok := defaultByKey[string(mvcc.Encode(userKey, rec.StartTS))]; ok {
				dvHex := hex.EncodeToString(dv)
				wf.DefaultValueHex = &dvHex
			}
		}
		kf.Versions = append(kf.Versions, wf)
	}
	for _, e := range s.cfs[mvcckv.CFLock] {
		k := string(e.key)
		kf, ok := byUser[k]
		if !ok {
			kf = &KeyFixture{KeyHex: hex.EncodeToString(e.key)}
			byUser[k] = kf
			order = append(order, k)
		}
		rec, err := mvcc.ParseLockRecord(e.value)
		if err != nil {
			return Fixture{}, err
		}
		kf.Lock = &LockFixture{StartTS: rec.StartTS, PrimaryHex: hex.EncodeToString(rec.Primary)}
	}

	f := Fixture{}
	for _, k := range order {
		f.Keys = append(f.Keys, *byUser[k])
	}
	return f, nil
}

// MarshalJSON-compatible helper for DumpTo; kept here since it's a
// Fixture-shaped concern, not a Snapshot one.
func marshalFixture(f Fixture) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}
