package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nn-client/internal/domain/entity"
)

func TestMemoryTickRepository(t *testing.T) {
	repo := NewMemoryTickRepository()
	ctx := context.Background()

	_, ok, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	info := entity.ModelInfo{Type: entity.ModelDetector, InputWidth: 300, InputHeight: 300}
	repo.SetModel(info)
	got, ok, err := repo.Model(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, info, got)

	require.NoError(t, repo.Observe(ctx, info, entity.Tick{Seq: 1, Result: entity.Detections{}, Annotations: make([]entity.Annotation, 4)}, nil))
	require.NoError(t, repo.Save(ctx, info, entity.Tick{Seq: 2}))

	latest, ok, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(2), latest.Seq)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), stats.Ticks)
	require.Equal(t, uint64(1), stats.Undecodable)
	require.Equal(t, uint64(4), stats.Annotations)
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("background\nperson  \r\n bicycle\n\ncar"), 0o644))

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	require.Equal(t, entity.Labels{"background", "person", "bicycle", "", "car"}, labels)
}

func TestLoadLabels_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	require.Empty(t, labels)
	require.Equal(t, "#3", labels.Name(3))
}

func TestLoadLabels_Missing(t *testing.T) {
	_, err := LoadLabels(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestSessionRecorder_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewSessionRecorder(dir, "a1b2")
	require.NoError(t, err)

	info := entity.ModelInfo{Type: entity.ModelClassifier, InputWidth: 224, InputHeight: 224}.WithFrame(640, 480)
	base := time.Unix(1700000000, 500)
	for i := 1; i <= 3; i++ {
		tick := entity.Tick{
			Seq:  uint64(i),
			Time: base.Add(time.Duration(i) * time.Second),
			Raw:  json.RawMessage(`[1]`),
			Annotations: []entity.Annotation{
				{Kind: entity.AnnotationText, Label: "dog"},
			},
		}
		require.NoError(t, rec.Observe(context.Background(), info, tick, nil))
	}
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())
	require.Error(t, rec.Record(base, Record{}))

	f, err := os.Open(rec.Path())
	require.NoError(t, err)
	defer f.Close()

	var seqs []uint64
	err = ReadRecords(f, func(ts time.Time, r Record) error {
		seqs = append(seqs, r.Seq)
		require.Equal(t, base.Add(time.Duration(r.Seq)*time.Second).UnixNano(), ts.UnixNano())
		require.Equal(t, info, r.Model)
		require.Equal(t, `[1]`, string(r.Raw))
		require.Equal(t, 1, r.Annotations)
		require.Equal(t, "dog", r.Summary)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestSessionRecorder_SessionsInSameSecondDoNotCollide(t *testing.T) {
	dir := t.TempDir()

	first, err := NewSessionRecorder(dir, "first")
	require.NoError(t, err)
	defer first.Close()
	second, err := NewSessionRecorder(dir, "second")
	require.NoError(t, err)
	defer second.Close()
	require.NotEqual(t, first.Path(), second.Path())

	tick := entity.Tick{Seq: 1, Time: time.Now(), Raw: json.RawMessage(`[7]`)}
	require.NoError(t, first.Observe(context.Background(), entity.ModelInfo{}, tick, nil))
	require.NoError(t, first.Close())

	f, err := os.Open(first.Path())
	require.NoError(t, err)
	defer f.Close()

	var seqs []uint64
	require.NoError(t, ReadRecords(f, func(_ time.Time, r Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	}))
	require.Equal(t, []uint64{1}, seqs)
}

func TestSessionRecorder_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for _, ts := range []time.Time{now, now.Add(time.Second)} {
		name := ts.Format("20060102_150405") + "_dup_session.bin"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("keep"), 0o644))
	}

	_, err := NewSessionRecorder(dir, "dup")
	require.ErrorIs(t, err, os.ErrExist)
}

func TestReadRecords_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte("NOTAREC1"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	err = ReadRecords(f, func(time.Time, Record) error { return nil })
	require.Error(t, err)
}
