package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankassist/internal/onboarding/models"
)

func TestToRecord(t *testing.T) {
	t.Run("positive classification with fields", func(t *testing.T) {
		raw := map[string]any{
			"is_id_card":  true,
			"name":        "Rahul Sharma",
			"dob":         "15/08/1990",
			"gender":      "Male",
			"national_id": "123456789012",
		}
		record := toRecord(models.ExtractIDFront, raw)
		assert.True(t, record.Valid)
		assert.Equal(t, "Rahul Sharma", record.Fields[models.FieldName])
		assert.Equal(t, "123456789012", record.Fields[models.FieldNationalID])
		assert.NotContains(t, record.Fields, "is_id_card")
		assert.Empty(t, record.MissingCritical())
	})

	t.Run("negative classification nulls fields", func(t *testing.T) {
		raw := map[string]any{
			"is_id_card": false,
			"name":       nil,
			"dob":        nil,
		}
		record := toRecord(models.ExtractIDFront, raw)
		assert.False(t, record.Valid)
		assert.Empty(t, record.Fields[models.FieldName])
	})

	t.Run("missing critical fields are reported", func(t *testing.T) {
		raw := map[string]any{
			"is_tax_card": true,
			"tax_no":      "ABCDE1234F",
		}
		record := toRecord(models.ExtractTaxCard, raw)
		assert.True(t, record.Valid)
		assert.Equal(t, []string{models.FieldFatherName}, record.MissingCritical())
	})
}

func TestPromptFor(t *testing.T) {
	for _, kind := range []models.ExtractKind{models.ExtractIDFront, models.ExtractIDBack, models.ExtractTaxCard} {
		prompt, err := promptFor(kind)
		require.NoError(t, err)
		assert.NotEmpty(t, prompt)
	}
	_, err := promptFor(models.ExtractKind("selfie"))
	require.Error(t, err)
}
