package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/classifier"
	"github.com/facemark/facemark-api/internal/models"
	"github.com/facemark/facemark-api/internal/vision"
)

type fakeProvider struct {
	model *classifier.Model
}

func (p *fakeProvider) Current() (*classifier.Model, error) {
	if p.model == nil {
		return nil, classifier.ErrNotTrained
	}
	return p.model, nil
}

func (p *fakeProvider) Trained() bool { return p.model != nil }

type recordingMarker struct {
	calls []string
	mark  models.MarkResult
}

func (m *recordingMarker) Mark(_ context.Context, studentID, date, source string, confidence float64) (*models.MarkResult, error) {
	m.calls = append(m.calls, studentID)
	result := m.mark
	result.StudentID = studentID
	return &result, nil
}

func flatEmbedding(value float32) vision.Embedding {
	vec := make(vision.Embedding, vision.EmbeddingSize)
	for i := range vec {
		vec[i] = value
	}
	return vec
}

func twoStudentModel(t *testing.T) *classifier.Model {
	t.Helper()
	model := classifier.NewModel(3)
	require.NoError(t, model.Fit(
		[]string{"s001", "s001", "s002", "s002"},
		[]vision.Embedding{
			flatEmbedding(0.10), flatEmbedding(0.12),
			flatEmbedding(0.90), flatEmbedding(0.88),
		},
	))
	return model
}

func newRecognition(t *testing.T, provider ModelProvider, marker AttendanceMarker) *RecognitionService {
	t.Helper()
	return NewRecognitionService(
		&stubExtractor{}, provider, marker, knownStudents("s001", "s002"), 0.5, zap.NewNop())
}

func TestIdentifyNotTrained(t *testing.T) {
	svc := newRecognition(t, &fakeProvider{}, &recordingMarker{})
	_, err := svc.Identify(flatEmbedding(0.5))
	assert.Error(t, err)
}

func TestIdentifyMatches(t *testing.T) {
	svc := newRecognition(t, &fakeProvider{model: twoStudentModel(t)}, &recordingMarker{})

	pred, err := svc.Identify(flatEmbedding(0.11))
	require.NoError(t, err)
	assert.Equal(t, "s001", pred.Label)
	assert.Greater(t, pred.Confidence, 0.5)
}

func TestRecognizeAndMarkConfidentMatch(t *testing.T) {
	marker := &recordingMarker{mark: models.MarkResult{Marked: true}}
	svc := newRecognition(t, &fakeProvider{model: twoStudentModel(t)}, marker)

	// A near-black frame embeds close to s001's samples.
	result, err := svc.RecognizeAndMark(context.Background(), testJPEG(t, 28), "")
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.Equal(t, "s001", result.StudentID)
	assert.True(t, result.Marked)
	assert.Equal(t, []string{"s001"}, marker.calls)
}

func TestRecognizeAndMarkLowConfidenceSkipsLedger(t *testing.T) {
	marker := &recordingMarker{}
	svc := NewRecognitionService(
		// Threshold above any possible share forces the gate shut.
		&stubExtractor{}, &fakeProvider{model: twoStudentModel(t)}, marker,
		knownStudents("s001", "s002"), 1.1, zap.NewNop())

	result, err := svc.RecognizeAndMark(context.Background(), testJPEG(t, 120), "")
	require.NoError(t, err)
	assert.False(t, result.Recognized)
	assert.Empty(t, marker.calls)
}

func TestRecognizeAndMarkNoFace(t *testing.T) {
	marker := &recordingMarker{}
	svc := NewRecognitionService(
		&stubExtractor{err: vision.ErrNoFace}, &fakeProvider{model: twoStudentModel(t)}, marker,
		knownStudents("s001"), 0.5, zap.NewNop())

	result, err := svc.RecognizeAndMark(context.Background(), testJPEG(t, 100), "")
	require.NoError(t, err)
	assert.False(t, result.Recognized)
	assert.Equal(t, "no face detected", result.Reason)
	assert.Empty(t, marker.calls)
}

func TestRecognizeAndMarkBadImage(t *testing.T) {
	svc := newRecognition(t, &fakeProvider{model: twoStudentModel(t)}, &recordingMarker{})
	_, err := svc.RecognizeAndMark(context.Background(), []byte("junk"), "")
	assert.Error(t, err)
}

func TestRecognizeAndMarkDuplicateDay(t *testing.T) {
	marker := &recordingMarker{mark: models.MarkResult{Marked: false, Duplicate: true}}
	svc := newRecognition(t, &fakeProvider{model: twoStudentModel(t)}, marker)

	result, err := svc.RecognizeAndMark(context.Background(), testJPEG(t, 28), "2026-09-01")
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.False(t, result.Marked)
	assert.True(t, result.Duplicate)
}
