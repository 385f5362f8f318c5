package constants

import "strings"

// DocumentType is the closed set of document categories the pipeline recognizes.
type DocumentType string

const (
	Invoice  DocumentType = "invoice"
	Contract DocumentType = "contract"
	Receipt  DocumentType = "receipt"
)

var allDocumentTypes = []DocumentType{Invoice, Contract, Receipt}

// AllDocumentTypes returns the recognized categories in canonical order.
func AllDocumentTypes() []DocumentType {
	out := make([]DocumentType, len(allDocumentTypes))
	copy(out, allDocumentTypes)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allDocumentTypes))
	for i, t := range allDocumentTypes {
		result[i] = string(t)
	}
	return result
}

// ParseDocumentType normalizes input and maps it onto the closed category set.
func ParseDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, t := range allDocumentTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return "", false
}
