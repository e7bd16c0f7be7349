package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finlens/internal/model"
)

type fakeWriter struct {
	mu     sync.Mutex
	stored map[string]model.TransactionInput
	failOn string
}

func (w *fakeWriter) PutTransaction(_ context.Context, userID, externalID string, in model.TransactionInput) (string, error) {
	if externalID == w.failOn {
		return "", errors.New("permission denied")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stored == nil {
		w.stored = make(map[string]model.TransactionInput)
	}
	w.stored[userID+"/"+externalID] = in
	return externalID, nil
}

func writeFile(t *testing.T, dir, name, body string) DiscoveredFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return DiscoveredFile{Path: path, Name: name}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	files := []DiscoveredFile{
		writeFile(t, dir, "june.jsonl", `{"id":"j1","amount":100,"category":"Food"}
{"id":"j2","amount":200}
garbage
`),
		writeFile(t, dir, "july.jsonl", `{"id":"bad","amount":50}
{"amount":75,"category":"Fuel"}
`),
		{Path: filepath.Join(dir, "gone.jsonl"), Name: "gone.jsonl"},
	}

	w := &fakeWriter{failOn: "bad"}
	var calls int
	var mu sync.Mutex
	res, err := Import(context.Background(), w, "u1", files, func(current, total int) {
		mu.Lock()
		calls++
		mu.Unlock()
		assert.Equal(t, 4, total)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalFiles)
	assert.Equal(t, 2, res.ParsedFiles)
	assert.Equal(t, 1, res.FileErrors)
	assert.Equal(t, 1, res.ParseErrors)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 1, res.WriteErrors)
	assert.Error(t, res.FirstErr)
	assert.Equal(t, 4, calls)

	assert.Equal(t, "Food", w.stored["u1/j1"].Category)
	assert.Equal(t, 75.0, w.stored["u1/july.jsonl:2"].Amount)
}

func TestImport_NoFiles(t *testing.T) {
	res, err := Import(context.Background(), &fakeWriter{}, "u1", nil, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
}

func TestImport_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	files := []DiscoveredFile{writeFile(t, dir, "a.jsonl", `{"amount":1}`+"\n")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Import(ctx, &fakeWriter{}, "u1", files, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Imported)
}
