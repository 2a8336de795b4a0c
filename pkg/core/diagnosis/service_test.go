package diagnosis

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"farmer_assist/pkg/core/flow"
	"farmer_assist/pkg/core/llm"
	"farmer_assist/pkg/core/store"
	"farmer_assist/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	in    flow.AnalyzePlantImageInput
	out   string
	err   error
	calls int
}

func (s *stubAnalyzer) AnalyzePlantImage(_ context.Context, in flow.AnalyzePlantImageInput) (flow.AnalyzePlantImageOutput, error) {
	s.calls++
	s.in = in
	return flow.AnalyzePlantImageOutput{Diagnosis: s.out}, s.err
}

type failingRepo struct{ store.MemoryDiagnosisRepo }

func (failingRepo) Create(context.Context, *models.Diagnosis) error {
	return errors.New("db down")
}

type stubBlobs struct {
	key string
	err error
}

func (b *stubBlobs) Put(_ context.Context, key string, _ llm.Media) (string, error) {
	b.key = key
	return "s3://bucket/" + key, b.err
}

const pngURI = "data:image/png;base64,aGVsbG8="

func TestDiagnose_RejectsEmptySubmission(t *testing.T) {
	an := &stubAnalyzer{out: "x"}
	svc := NewService("app", an, store.NewMemoryDiagnosisRepo(), nil, nil)

	_, err := svc.Diagnose(context.Background(), "u1", Request{TextQuery: "  "})
	assert.ErrorIs(t, err, flow.ErrNoInput)
	assert.Zero(t, an.calls)

	_, err = svc.Diagnose(context.Background(), "", Request{TextQuery: "help"})
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestDiagnose_PhotoChecks(t *testing.T) {
	svc := NewService("app", &stubAnalyzer{out: "x"}, nil, nil, nil)

	_, err := svc.Diagnose(context.Background(), "u1", Request{PhotoDataURI: "data:text/plain;base64,aGk="})
	assert.ErrorIs(t, err, ErrNotImage)
	assert.ErrorIs(t, err, flow.ErrInvalidInput)

	big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("a", MaxImageBytes+1)))
	_, err = svc.Diagnose(context.Background(), "u1", Request{PhotoDataURI: "data:image/jpeg;base64," + big})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = svc.Diagnose(context.Background(), "u1", Request{PhotoDataURI: "garbage"})
	assert.ErrorIs(t, err, llm.ErrInvalidDataURI)
}

func TestDiagnose_SavesAndListsHistory(t *testing.T) {
	repo := store.NewMemoryDiagnosisRepo()
	an := &stubAnalyzer{out: "Early blight"}
	svc := NewService("app", an, repo, nil, nil)
	clock := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	res, err := svc.Diagnose(context.Background(), "u1", Request{PhotoDataURI: pngURI, TextQuery: "brown rings", Language: "Hindi"})
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, "Early blight", res.Diagnosis)
	assert.Equal(t, "hi", an.in.Language)
	assert.Equal(t, pngURI, res.Record.ImageURL, "inline image kept without blob store")

	an.out = "Healthy"
	_, err = svc.Diagnose(context.Background(), "u1", Request{TextQuery: "is it fine now?"})
	require.NoError(t, err)

	hist, err := svc.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "Healthy", hist[0].Diagnosis, "newest first")
	assert.Equal(t, "kn", hist[0].Language, "default language")
	assert.Equal(t, "brown rings", hist[1].Query)
}

func TestDiagnose_StorageFailureIsNotFatal(t *testing.T) {
	svc := NewService("app", &stubAnalyzer{out: "Rust"}, &failingRepo{}, nil, nil)
	res, err := svc.Diagnose(context.Background(), "u1", Request{TextQuery: "orange spots"})
	require.NoError(t, err)
	assert.False(t, res.Saved)
	assert.Equal(t, "Rust", res.Diagnosis)
}

func TestDiagnose_UploadsPhoto(t *testing.T) {
	blobs := &stubBlobs{}
	svc := NewService("app", &stubAnalyzer{out: "ok"}, store.NewMemoryDiagnosisRepo(), blobs, nil)

	res, err := svc.Diagnose(context.Background(), "u1", Request{PhotoDataURI: pngURI})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(blobs.key, "app/u1/"))
	assert.True(t, strings.HasSuffix(blobs.key, ".png"))
	assert.Equal(t, "s3://bucket/"+blobs.key, res.Record.ImageURL)

	blobs.err = errors.New("denied")
	res, err = svc.Diagnose(context.Background(), "u1", Request{PhotoDataURI: pngURI})
	require.NoError(t, err)
	assert.Equal(t, pngURI, res.Record.ImageURL)
}

func TestDiagnose_ModelErrorSurfaces(t *testing.T) {
	boom := errors.New("model unavailable")
	svc := NewService("app", &stubAnalyzer{err: boom}, nil, nil, nil)
	_, err := svc.Diagnose(context.Background(), "u1", Request{TextQuery: "help"})
	assert.ErrorIs(t, err, boom)
}
