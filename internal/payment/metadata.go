package payment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

// Provider metadata is a flat string map with hard limits.
const (
	MaxMetadataKeys        = 50
	MaxMetadataKeyLength   = 40
	MaxMetadataValueLength = 500
)

const (
	keyUserID        = "userId"
	keyUserEmail     = "userEmail"
	keyDocumentCount = "documentCount"
	keyTotalPrice    = "totalPrice"
	keyDocumentIDs   = "documentIds"

	fieldFilename         = "filename"
	fieldPages            = "pages"
	fieldIsNotarized      = "isNotarized"
	fieldIsBankStatement  = "isBankStatement"
	fieldDocumentID       = "documentId"
	fieldOriginalLanguage = "originalLanguage"
	fieldTargetLanguage   = "targetLanguage"
)

// Metadata is the typed form of the provider's flat metadata.
type Metadata struct {
	UserID     string
	UserEmail  string
	TotalPrice int64
	Items      []models.DocumentItem
}

func docKey(i int, field string) string {
	return fmt.Sprintf("doc%d_%s", i, field)
}

// EncodeMetadata flattens m into doc{i}_* keys. Only the fields listed in
// the doc{i}_* keys travel; file identifiers and prices stay server-side.
func EncodeMetadata(m Metadata) (map[string]string, error) {
	out := map[string]string{
		keyUserID:        m.UserID,
		keyUserEmail:     m.UserEmail,
		keyDocumentCount: strconv.Itoa(len(m.Items)),
		keyTotalPrice:    strconv.FormatInt(m.TotalPrice, 10),
	}

	ids := make([]string, 0, len(m.Items))
	for i, item := range m.Items {
		if strings.Contains(item.DocumentID, ",") {
			return nil, fmt.Errorf("document %d: id %q contains a comma: %w", i, item.DocumentID, utils.ErrValidation)
		}
		ids = append(ids, item.DocumentID)

		out[docKey(i, fieldFilename)] = item.Filename
		out[docKey(i, fieldPages)] = strconv.Itoa(item.Pages)
		out[docKey(i, fieldIsNotarized)] = strconv.FormatBool(item.IsNotarized)
		out[docKey(i, fieldIsBankStatement)] = strconv.FormatBool(item.IsBankStatement)
		out[docKey(i, fieldDocumentID)] = item.DocumentID
		out[docKey(i, fieldOriginalLanguage)] = item.OriginalLanguage
		out[docKey(i, fieldTargetLanguage)] = item.TargetLanguage
	}
	out[keyDocumentIDs] = strings.Join(ids, ",")

	if len(out) > MaxMetadataKeys {
		return nil, fmt.Errorf("%d documents need %d metadata keys, provider allows %d: %w",
			len(m.Items), len(out), MaxMetadataKeys, utils.ErrValidation)
	}
	for k, v := range out {
		if len(k) > MaxMetadataKeyLength {
			return nil, fmt.Errorf("metadata key %q is too long: %w", k, utils.ErrValidation)
		}
		if len(v) > MaxMetadataValueLength {
			return nil, fmt.Errorf("metadata value for %q exceeds %d characters: %w", k, MaxMetadataValueLength, utils.ErrValidation)
		}
	}

	return out, nil
}

// DecodeMetadata rebuilds Metadata from the flat map delivered back by the
// provider.
func DecodeMetadata(flat map[string]string) (*Metadata, error) {
	countRaw, ok := flat[keyDocumentCount]
	if !ok {
		return nil, fmt.Errorf("metadata has no %s: %w", keyDocumentCount, utils.ErrValidation)
	}
	count, err := strconv.Atoi(countRaw)
	if err != nil || count < 0 {
		return nil, fmt.Errorf("invalid %s %q: %w", keyDocumentCount, countRaw, utils.ErrValidation)
	}

	m := &Metadata{
		UserID:    flat[keyUserID],
		UserEmail: flat[keyUserEmail],
		Items:     make([]models.DocumentItem, 0, count),
	}

	if raw := flat[keyTotalPrice]; raw != "" {
		if m.TotalPrice, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", keyTotalPrice, raw, utils.ErrValidation)
		}
	}

	for i := 0; i < count; i++ {
		item := models.DocumentItem{
			Filename:         flat[docKey(i, fieldFilename)],
			DocumentID:       flat[docKey(i, fieldDocumentID)],
			OriginalLanguage: flat[docKey(i, fieldOriginalLanguage)],
			TargetLanguage:   flat[docKey(i, fieldTargetLanguage)],
		}

		pagesRaw := flat[docKey(i, fieldPages)]
		if item.Pages, err = strconv.Atoi(pagesRaw); err != nil {
			return nil, fmt.Errorf("document %d: invalid pages %q: %w", i, pagesRaw, utils.ErrValidation)
		}
		if item.IsNotarized, err = parseBool(flat, docKey(i, fieldIsNotarized)); err != nil {
			return nil, err
		}
		if item.IsBankStatement, err = parseBool(flat, docKey(i, fieldIsBankStatement)); err != nil {
			return nil, err
		}

		m.Items = append(m.Items, item)
	}

	// sessions written before per-document ids existed only carry documentIds
	if ids := flat[keyDocumentIDs]; ids != "" {
		for i, id := range strings.Split(ids, ",") {
			if i < len(m.Items) && m.Items[i].DocumentID == "" {
				m.Items[i].DocumentID = id
			}
		}
	}

	return m, nil
}

func parseBool(flat map[string]string, key string) (bool, error) {
	raw, ok := flat[key]
	if !ok || raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, utils.ErrValidation)
	}
	return v, nil
}
