// =============================================================================
// SAP Partner Import - JSON Writer Module
// =============================================================================
//
// This module serialises the upsert requests built for one extract file into
// the document placed in the outbox.
//
// DOCUMENT STRUCTURE:
//
//   [                                          <- one entry per partner group
//     {
//       "orgCode": "1000",
//       "jsonRequestBPartnerUpsert": {
//         "requestItems": [ ... ],             <- section group partner first
//         "syncAdvise": {"ifNotExists": "CREATE", "ifExists": "UPDATE_MERGE"}
//       }
//     }
//   ]
//
// The output is deterministic: the same requests always produce the same bytes.
//
// =============================================================================

package jsonwriter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ginjaninja78/sap-partner-import/internal/types"
)

// GenerateOptions contains options for JSON generation.
type GenerateOptions struct {
	// Indent is the indentation per level. Empty writes compact JSON.
	Indent string

	// EscapeHTML escapes <, > and & inside strings. Partner names often
	// contain "&", so the default is false.
	EscapeHTML bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{Indent: "  "}
}

// Generate serialises requests with the default options.
func Generate(requests []types.BPUpsertRequest) ([]byte, error) {
	return GenerateWithOptions(requests, DefaultGenerateOptions())
}

// GenerateWithOptions serialises requests as a JSON array terminated by a newline.
func GenerateWithOptions(requests []types.BPUpsertRequest, options GenerateOptions) ([]byte, error) {
	if requests == nil {
		requests = []types.BPUpsertRequest{}
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(options.EscapeHTML)
	if options.Indent != "" {
		encoder.SetIndent("", options.Indent)
	}

	if err := encoder.Encode(requests); err != nil {
		return nil, fmt.Errorf("failed to encode upsert requests: %w", err)
	}

	return buffer.Bytes(), nil
}

// ItemCount returns the number of request items across all requests.
func ItemCount(requests []types.BPUpsertRequest) int {
	count := 0
	for _, request := range requests {
		count += len(request.JSONRequestBPartnerUpsert.RequestItems)
	}
	return count
}
