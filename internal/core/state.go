package core

// state.go reads and writes the three persisted values as whole JSON documents.
//
// The key names and JSON shapes are identical across store backends, so a
// dump taken from one backend can be loaded into another.

import (
	"context"
	"encoding/json"
)

// Persisted keys.
const (
	KeyFileNames = "uploadedFileNames"
	KeyFileData  = "fileData"
	KeyLedger    = "shops"
)

// Store is a key-value text store. Values are always read and written whole.
type Store interface {
	// Get returns the value for key; ok is false if the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

func loadJSON[T any](ctx context.Context, st Store, key string) (T, error) {
	var v T
	raw, ok, err := st.Get(ctx, key)
	if err != nil {
		return v, persistErr("get", key, err)
	}
	if !ok || raw == "" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, persistErr("decode", key, err)
	}
	return v, nil
}

func saveJSON(ctx context.Context, st Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return persistErr("encode", key, err)
	}
	if err := st.Set(ctx, key, string(data)); err != nil {
		return persistErr("set", key, err)
	}
	return nil
}

func loadFileNames(ctx context.Context, st Store) ([]string, error) {
	return loadJSON[[]string](ctx, st, KeyFileNames)
}

func saveFileNames(ctx context.Context, st Store, names []string) error {
	if names == nil {
		names = []string{}
	}
	return saveJSON(ctx, st, KeyFileNames, names)
}

func loadFiles(ctx context.Context, st Store) ([]FileRecord, error) {
	return loadJSON[[]FileRecord](ctx, st, KeyFileData)
}

func saveFiles(ctx context.Context, st Store, files []FileRecord) error {
	if files == nil {
		files = []FileRecord{}
	}
	return saveJSON(ctx, st, KeyFileData, files)
}

func loadLedger(ctx context.Context, st Store) (Ledger, error) {
	return loadJSON[Ledger](ctx, st, KeyLedger)
}

func saveLedger(ctx context.Context, st Store, l Ledger) error {
	if l == nil {
		l = Ledger{}
	}
	return saveJSON(ctx, st, KeyLedger, l)
}
