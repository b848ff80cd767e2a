package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/khelo/internal/entities"
)

func TestGenerateIsDeterministic(t *testing.T) {
	meta := entities.CaptureMetadata{DurationSeconds: 12, FaceMatch: true}

	first := Generate("A1001", "t4", "Standing Vertical Jump", meta)
	second := Generate("A1001", "t4", "Standing Vertical Jump", meta)

	assert.Equal(t, first, second)
	require.NotNil(t, first.JumpHeightCM)
	assert.Equal(t, *first.JumpHeightCM, *second.JumpHeightCM)
}

func TestGenerateNormalizesTestName(t *testing.T) {
	a := Generate("A1001", "t4", "Standing Vertical Jump", entities.CaptureMetadata{})
	b := Generate("A1001", "t4", "  standing   VERTICAL jump ", entities.CaptureMetadata{})
	assert.Equal(t, a, b)
}

func TestGenerateBounds(t *testing.T) {
	names := []string{"Standing Vertical Jump", "Sit Ups", "4x10m Shuttle Run", "Sit and Reach"}

	for i := 0; i < 500; i++ {
		athlete := fmt.Sprintf("A%04d", i)
		for j, name := range names {
			r := Generate(athlete, fmt.Sprintf("t%d", j), name, entities.CaptureMetadata{})

			assert.GreaterOrEqual(t, r.Confidence, ConfidenceMin)
			assert.LessOrEqual(t, r.Confidence, ConfidenceMax)

			switch r.Variant {
			case entities.AnalysisVariantJump:
				require.NotNil(t, r.JumpHeightCM)
				assert.GreaterOrEqual(t, *r.JumpHeightCM, JumpHeightMinCM)
				assert.LessOrEqual(t, *r.JumpHeightCM, JumpHeightMaxCM)
				assert.Contains(t, []string{entities.TechniqueGood, entities.TechniqueNeedsImprovement}, r.Technique)
			case entities.AnalysisVariantRepetition:
				require.NotNil(t, r.Reps)
				require.NotNil(t, r.FormScore)
				assert.GreaterOrEqual(t, *r.Reps, RepsMin)
				assert.LessOrEqual(t, *r.Reps, RepsMax)
				assert.GreaterOrEqual(t, *r.FormScore, 0)
				assert.LessOrEqual(t, *r.FormScore, 100)
			case entities.AnalysisVariantTimed:
				require.NotNil(t, r.TimeSeconds)
				require.NotNil(t, r.AgilityScore)
				assert.GreaterOrEqual(t, *r.TimeSeconds, TimeSecondsMin)
				assert.LessOrEqual(t, *r.TimeSeconds, TimeSecondsMax)
				assert.GreaterOrEqual(t, *r.AgilityScore, AgilityScoreMin)
				assert.LessOrEqual(t, *r.AgilityScore, AgilityScoreMax)
			case entities.AnalysisVariantBaseline:
				assert.Nil(t, r.JumpHeightCM)
				assert.Nil(t, r.Reps)
				assert.Nil(t, r.TimeSeconds)
			}
		}
	}
}

func TestGenerateVariants(t *testing.T) {
	t.Run("jump", func(t *testing.T) {
		r := Generate("A1001", "t4", "Standing Vertical Jump", entities.CaptureMetadata{})
		assert.Equal(t, entities.AnalysisVariantJump, r.Variant)
		assert.NotNil(t, r.JumpHeightCM)
		assert.NotEmpty(t, r.Technique)
		assert.Nil(t, r.Reps)
		assert.Nil(t, r.TimeSeconds)
	})

	t.Run("repetition", func(t *testing.T) {
		r := Generate("A1001", "t9", "Sit Ups", entities.CaptureMetadata{})
		assert.Equal(t, entities.AnalysisVariantRepetition, r.Variant)
		assert.NotNil(t, r.Reps)
		assert.NotNil(t, r.FormScore)
		assert.Nil(t, r.JumpHeightCM)
	})

	t.Run("timed", func(t *testing.T) {
		r := Generate("A1001", "t8", "4x10m Shuttle Run", entities.CaptureMetadata{})
		assert.Equal(t, entities.AnalysisVariantTimed, r.Variant)
		assert.NotNil(t, r.TimeSeconds)
		assert.NotNil(t, r.AgilityScore)
	})

	t.Run("unrecognized test gives baseline only", func(t *testing.T) {
		r := Generate("A1001", "t6", "Medicine Ball Throw", entities.CaptureMetadata{})
		assert.Equal(t, entities.AnalysisVariantBaseline, r.Variant)
		assert.Nil(t, r.JumpHeightCM)
		assert.Nil(t, r.Reps)
		assert.Nil(t, r.FormScore)
		assert.Nil(t, r.TimeSeconds)
		assert.Nil(t, r.AgilityScore)
		assert.Empty(t, r.Technique)
		assert.GreaterOrEqual(t, r.Confidence, ConfidenceMin)
	})

	t.Run("missing metadata is baseline, not an error", func(t *testing.T) {
		r := Generate("", "", "", entities.CaptureMetadata{})
		assert.Equal(t, entities.AnalysisVariantBaseline, r.Variant)
	})
}

func TestClassify(t *testing.T) {
	cases := map[string]entities.AnalysisVariant{
		"Standing Vertical Jump": entities.AnalysisVariantJump,
		"Standing Broad Jump":    entities.AnalysisVariantJump,
		"Sit Ups":                entities.AnalysisVariantRepetition,
		"sit-ups":                entities.AnalysisVariantRepetition,
		"4x10m Shuttle Run":      entities.AnalysisVariantTimed,
		"30m Standing Start":     entities.AnalysisVariantTimed,
		"Endurance Run":          entities.AnalysisVariantTimed,
		"Sit and Reach":          entities.AnalysisVariantBaseline,
		"Height":                 entities.AnalysisVariantBaseline,
		"Brunch":                 entities.AnalysisVariantBaseline,
		"":                       entities.AnalysisVariantBaseline,
	}
	for name, want := range cases {
		assert.Equal(t, want, Classify(name), name)
	}
}

func TestGenerateMetadataFallbacks(t *testing.T) {
	meta := entities.CaptureMetadata{AthleteID: "A2002", TestID: "t4", TestName: "Standing Vertical Jump"}

	fromMeta := Generate("", "", "", meta)
	explicit := Generate("A2002", "t4", "Standing Vertical Jump", entities.CaptureMetadata{})
	assert.Equal(t, explicit, fromMeta)

	defaulted := Generate("", "t4", "Standing Vertical Jump", entities.CaptureMetadata{})
	assert.Equal(t, Generate(DefaultAthleteID, "t4", "Standing Vertical Jump", entities.CaptureMetadata{}), defaulted)
}

func TestGenerateSpreadsAcrossSeeds(t *testing.T) {
	heights := make(map[int]bool)
	var matches int
	const n = 2000

	for i := 0; i < n; i++ {
		r := Generate(fmt.Sprintf("A%d", i), "t4", "Standing Vertical Jump", entities.CaptureMetadata{})
		heights[*r.JumpHeightCM] = true
		if r.FaceMatch {
			matches++
		}
	}

	assert.Greater(t, len(heights), 10, "heights should use most of the band")
	ratio := float64(matches) / n
	assert.InDelta(t, 0.8, ratio, 0.05)
}

func TestGenerateDrawsAreIndependent(t *testing.T) {
	// Confidence and jump height come from different draws, so they must
	// not move in lockstep across seeds.
	type pair struct {
		confidenceHigh bool
		heightHigh     bool
	}
	seen := make(map[pair]bool)
	for i := 0; i < 200; i++ {
		r := Generate(fmt.Sprintf("A%d", i), "t4", "Standing Vertical Jump", entities.CaptureMetadata{})
		seen[pair{r.Confidence > 0.925, *r.JumpHeightCM > 39}] = true
	}
	assert.Len(t, seen, 4)
}

func TestGenerateDiffersByInput(t *testing.T) {
	a := Generate("A1001", "t4", "Standing Vertical Jump", entities.CaptureMetadata{})
	b := Generate("A1002", "t4", "Standing Vertical Jump", entities.CaptureMetadata{})
	c := Generate("A1001", "t5", "Standing Vertical Jump", entities.CaptureMetadata{})

	assert.NotEqual(t, a.Confidence, b.Confidence)
	assert.NotEqual(t, a.Confidence, c.Confidence)
}
