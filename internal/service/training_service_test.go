package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/classifier"
	"github.com/facemark/facemark-api/internal/models"
	"github.com/facemark/facemark-api/internal/vision"
	"github.com/facemark/facemark-api/pkg/storage"
)

type stubExtractor struct {
	err error
}

func (e *stubExtractor) ExtractFirst(img image.Image) (vision.Sample, error) {
	if e.err != nil {
		return vision.Sample{}, e.err
	}
	return vision.Sample{Vector: vision.Embed(img), Region: img.Bounds()}, nil
}

type captureSaver struct {
	saved *classifier.Model
	err   error
}

func (s *captureSaver) Save(m *classifier.Model) error {
	if s.err != nil {
		return s.err
	}
	s.saved = m
	return nil
}

type noopFlagger struct{}

func (noopFlagger) SetEnrollment(context.Context, string, int, bool) error { return nil }

func testJPEG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func seededDataset(t *testing.T) *storage.DatasetStore {
	t.Helper()
	dataset, err := storage.NewDatasetStore(t.TempDir())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := dataset.SaveImage("s001", i, testJPEG(t, 40))
		require.NoError(t, err)
		_, err = dataset.SaveImage("s002", i, testJPEG(t, 220))
		require.NoError(t, err)
	}
	return dataset
}

func TestTrainingHappyPath(t *testing.T) {
	dataset := seededDataset(t)
	saver := &captureSaver{}
	svc := NewTrainingService(dataset, &stubExtractor{}, saver, noopFlagger{}, 3, zap.NewNop())

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Run(context.Background()))

	status := svc.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, models.StageDone, status.Stage)
	assert.Equal(t, 2, status.Students)
	assert.Equal(t, 6, status.Samples)

	require.NotNil(t, saver.saved)
	assert.Equal(t, []string{"s001", "s002"}, saver.saved.Classes())
}

func TestTrainingDoubleStartRejected(t *testing.T) {
	dataset := seededDataset(t)
	svc := NewTrainingService(dataset, &stubExtractor{}, &captureSaver{}, noopFlagger{}, 3, zap.NewNop())

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())

	// Once the run completes the slot opens again.
	require.NoError(t, svc.Run(context.Background()))
	assert.NoError(t, svc.Start())
}

func TestTrainingEmptyDatasetFails(t *testing.T) {
	dataset, err := storage.NewDatasetStore(t.TempDir())
	require.NoError(t, err)
	saver := &captureSaver{}
	svc := NewTrainingService(dataset, &stubExtractor{}, saver, noopFlagger{}, 3, zap.NewNop())

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Run(context.Background()))

	status := svc.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 0, status.Progress)
	assert.Equal(t, models.StageFailed, status.Stage)
	assert.Nil(t, saver.saved)
}

func TestTrainingFacelessImagesFail(t *testing.T) {
	dataset := seededDataset(t)
	saver := &captureSaver{}
	svc := NewTrainingService(dataset, &stubExtractor{err: vision.ErrNoFace}, saver, noopFlagger{}, 3, zap.NewNop())

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Run(context.Background()))
	assert.Nil(t, saver.saved)
}

func TestTrainingSaveFailure(t *testing.T) {
	dataset := seededDataset(t)
	svc := NewTrainingService(dataset, &stubExtractor{}, &captureSaver{err: os.ErrPermission}, noopFlagger{}, 3, zap.NewNop())

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Run(context.Background()))

	status := svc.Status()
	assert.Equal(t, models.StageFailed, status.Stage)
	assert.Equal(t, 0, status.Progress)

	// The slot must reopen after a failed run.
	assert.NoError(t, svc.Start())
}

type panickingExtractor struct{}

func (panickingExtractor) ExtractFirst(image.Image) (vision.Sample, error) {
	panic("detector exploded")
}

func TestTrainingPanicReportedAsFailure(t *testing.T) {
	dataset := seededDataset(t)
	saver := &captureSaver{}
	svc := NewTrainingService(dataset, panickingExtractor{}, saver, noopFlagger{}, 3, zap.NewNop())

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Run(context.Background()))

	status := svc.Status()
	assert.False(t, status.Running)
	assert.Equal(t, models.StageFailed, status.Stage)
	assert.Nil(t, saver.saved)
	assert.NoError(t, svc.Start())
}

func TestTrainingSkipsUnreadableFiles(t *testing.T) {
	dataset := seededDataset(t)
	dir := filepath.Join(dataset.Dir(), "s001")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.jpg"), []byte("not an image"), 0o644))

	saver := &captureSaver{}
	svc := NewTrainingService(dataset, &stubExtractor{}, saver, noopFlagger{}, 3, zap.NewNop())

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, 6, svc.Status().Samples)
}
