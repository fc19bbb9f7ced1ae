package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/streaks/internal/streak"
)

// Version is the snapshot format version written by Encode.
const Version = 1

// DomainState prefixes state hashes. The version suffix leaves room for
// future format changes.
const DomainState = "streaks/state/v1"

// entry is the decoded form of one streak.
type entry struct {
	Start  int    `json:"start"`
	Item   string `json:"item"`
	Length int    `json:"length"`
	Break  int    `json:"break,omitempty"`
}

type document struct {
	Version int     `json:"version"`
	Streaks []entry `json:"streaks"`
}

// Encode returns the canonical snapshot of s. A nil state encodes as an
// empty snapshot.
func Encode(s *streak.State) ([]byte, error) {
	keys := s.Keys()
	list := make([]any, 0, len(keys))
	for _, k := range keys {
		st := s.Streaks[k]
		obj := map[string]any{
			"start":  k.Start,
			"item":   string(k.Item),
			"length": st.Length,
		}
		if st.Broken() {
			obj["break"] = st.Break
		}
		list = append(list, obj)
	}

	data, err := MarshalCanonical(map[string]any{
		"version": Version,
		"streaks": list,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot produced by Encode.
// Unknown fields, unknown versions, duplicate keys and impossible streaks
// are rejected.
func Decode(data []byte) (*streak.State, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", doc.Version)
	}

	s := streak.NewState()
	for i, e := range doc.Streaks {
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("decode snapshot: streaks[%d]: %w", i, err)
		}
		k := streak.Key{Start: e.Start, Item: streak.Item(e.Item)}
		if _, dup := s.Streaks[k]; dup {
			return nil, fmt.Errorf("decode snapshot: streaks[%d]: duplicate streak (start=%d, item=%q)", i, e.Start, e.Item)
		}
		s.Streaks[k] = &streak.Streak{Length: e.Length, Break: e.Break}
	}
	return s, nil
}

func validateEntry(e entry) error {
	switch {
	case e.Start < 1:
		return fmt.Errorf("start must be positive, got %d", e.Start)
	case e.Length < 1:
		return fmt.Errorf("length must be positive, got %d", e.Length)
	case e.Break < 0:
		return fmt.Errorf("break must not be negative, got %d", e.Break)
	case e.Break != 0 && e.Break < e.Start:
		return fmt.Errorf("break %d precedes start %d", e.Break, e.Start)
	}
	return nil
}

// Hash returns the content address of s.
func Hash(s *streak.State) (string, error) {
	data, err := Encode(s)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes hashes an already encoded snapshot.
// Format: SHA256(domain + 0x00 + data)
func HashBytes(data []byte) string {
	h := sha256.New()
	h.Write([]byte(DomainState))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ReadFile loads a snapshot from path. A missing file yields an error
// matching os.ErrNotExist.
func ReadFile(path string) (*streak.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(data)
}

// WriteFile writes the snapshot of s to path via a temporary file and
// rename, so readers never observe a partial blob.
func WriteFile(path string, s *streak.State) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// IsNotExist reports whether err came from reading a missing snapshot file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
