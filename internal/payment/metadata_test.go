package payment

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metadataItems(n int) []models.DocumentItem {
	items := make([]models.DocumentItem, n)
	for i := range items {
		items[i] = models.DocumentItem{
			DocumentID:       fmt.Sprintf("doc-%d", i),
			Filename:         fmt.Sprintf("certidão_%d.pdf", i),
			Pages:            i + 1,
			IsNotarized:      i%2 == 0,
			IsBankStatement:  i%3 == 0,
			OriginalLanguage: "Portuguese",
			TargetLanguage:   "English",
		}
	}
	return items
}

func TestMetadata_RoundTrip(t *testing.T) {
	for _, n := range []int{1, 5} {
		t.Run(fmt.Sprintf("%d documents", n), func(t *testing.T) {
			in := Metadata{UserID: "user-1", UserEmail: "maria@example.com", TotalPrice: 123, Items: metadataItems(n)}

			flat, err := EncodeMetadata(in)
			require.NoError(t, err)

			out, err := DecodeMetadata(flat)
			require.NoError(t, err)
			assert.Equal(t, in.Items, out.Items)
			assert.Equal(t, in.UserID, out.UserID)
			assert.Equal(t, in.UserEmail, out.UserEmail)
			assert.Equal(t, in.TotalPrice, out.TotalPrice)
		})
	}
}

func TestEncodeMetadata_Keys(t *testing.T) {
	flat, err := EncodeMetadata(Metadata{UserID: "u", UserEmail: "e", TotalPrice: 110, Items: metadataItems(2)})
	require.NoError(t, err)

	assert.Equal(t, "2", flat["documentCount"])
	assert.Equal(t, "110", flat["totalPrice"])
	assert.Equal(t, "doc-0,doc-1", flat["documentIds"])
	assert.Equal(t, "1", flat["doc0_pages"])
	assert.Equal(t, "true", flat["doc0_isNotarized"])
	assert.Equal(t, "true", flat["doc0_isBankStatement"])
	assert.Equal(t, "false", flat["doc1_isNotarized"])
	assert.Equal(t, "doc-1", flat["doc1_documentId"])
	assert.Equal(t, "English", flat["doc1_targetLanguage"])
	assert.Len(t, flat, 5+2*7)
}

func TestEncodeMetadata_ProviderLimits(t *testing.T) {
	_, err := EncodeMetadata(Metadata{Items: metadataItems(7)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))

	items := metadataItems(1)
	items[0].Filename = strings.Repeat("a", MaxMetadataValueLength+1)
	_, err = EncodeMetadata(Metadata{Items: items})
	assert.True(t, errors.Is(err, utils.ErrValidation))

	items = metadataItems(1)
	items[0].DocumentID = "a,b"
	_, err = EncodeMetadata(Metadata{Items: items})
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestDecodeMetadata_Errors(t *testing.T) {
	_, err := DecodeMetadata(map[string]string{})
	assert.True(t, errors.Is(err, utils.ErrValidation))

	_, err = DecodeMetadata(map[string]string{"documentCount": "1", "doc0_pages": "many"})
	assert.True(t, errors.Is(err, utils.ErrValidation))

	_, err = DecodeMetadata(map[string]string{"documentCount": "1", "doc0_pages": "1", "doc0_isNotarized": "maybe"})
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestDecodeMetadata_FallsBackToDocumentIDs(t *testing.T) {
	m, err := DecodeMetadata(map[string]string{
		"documentCount": "2",
		"documentIds":   "a,b",
		"doc0_pages":    "1",
		"doc1_pages":    "2",
	})
	require.NoError(t, err)
	assert.Equal(t, "a", m.Items[0].DocumentID)
	assert.Equal(t, "b", m.Items[1].DocumentID)
}
