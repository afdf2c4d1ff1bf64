// Package extract maps raw repository records into submission descriptors.
package extract

import (
	"fmt"
	"strings"

	"github.com/jhornung97/ETPApprover/internal/domain"
)

// Descriptor builds a normalized submission from one raw repository record.
// Pure: no I/O, no mutation of the input. A record without an identifier or
// author is reported as malformed so the caller can skip it and continue.
func Descriptor(raw map[string]any) (domain.Submission, error) {
	recordID := stringValue(raw["id"])
	if recordID == "" {
		recordID = stringValue(raw["recid"])
	}
	if recordID == "" {
		return domain.Submission{}, &domain.MalformedRecordError{Field: "record id"}
	}

	metadata, _ := raw["metadata"].(map[string]any)

	author := firstCreatorName(metadata)
	if author == "" {
		return domain.Submission{}, &domain.MalformedRecordError{Field: "author"}
	}

	sub := domain.Submission{
		RecordID:       recordID,
		Title:          "N/A",
		Author:         author,
		ThesisType:     "N/A",
		ApprovalStatus: "unknown",
	}

	if title := stringValue(metadata["title"]); title != "" {
		sub.Title = title
	}

	if resourceType, ok := metadata["resource_type"].(map[string]any); ok {
		if t := stringValue(resourceType["title"]); t != "" {
			sub.ThesisType = t
		}
		sub.ThesisSubtype = stringValue(resourceType["subtype"])
	}

	if thesis, ok := metadata["thesis"].(map[string]any); ok {
		if supervisors, ok := thesis["supervisors"].([]any); ok {
			for _, entry := range supervisors {
				item, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				name := strings.TrimSpace(stringValue(item["name"]))
				if name == "" {
					name = "Unknown"
				}
				sub.Supervisors = append(sub.Supervisors, name)
			}
		}
	}

	if status := stringValue(raw["approval_status"]); status != "" {
		sub.ApprovalStatus = status
	}

	return sub, nil
}

// stringValue renders identifiers and text fields uniformly; the repository
// serves numeric record IDs for some deposit versions and strings for others.
func stringValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%v", value)
	case int:
		return fmt.Sprintf("%d", value)
	case int64:
		return fmt.Sprintf("%d", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func firstCreatorName(metadata map[string]any) string {
	creators, ok := metadata["creators"].([]any)
	if !ok || len(creators) == 0 {
		return ""
	}
	first, ok := creators[0].(map[string]any)
	if !ok {
		return ""
	}
	return strings.TrimSpace(stringValue(first["name"]))
}
