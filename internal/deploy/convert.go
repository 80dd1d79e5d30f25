package deploy

import (
	"fmt"

	"campaign-import/internal/content"
	"campaign-import/internal/records"
)

// toContent maps a resolved record onto the shared content row shape.
func toContent(rec records.ParsedRecord) (content.Record, error) {
	out := content.Record{SubmissionID: rec.SubmissionID}
	switch p := rec.Payload.(type) {
	case records.ReviewPayload:
		out.ContentDate = p.RegisteredDate
		out.Content = p.Content
		out.SecondaryDate = p.VisitDate
		out.Status = p.Status
		out.Link = p.Link
		out.ExternalID = p.ExternalID
	case records.DistributionPayload:
		out.ContentDate = p.PublishedDate
		out.Title = p.Title
		out.Status = p.Status
		out.Link = p.Link
		out.ExternalID = p.ExternalID
	case records.CommunityPayload:
		out.ContentDate = p.PostedDate
		out.Title = p.Title
		out.Content = p.Content
		out.Status = p.Status
		out.Link = p.Link
		out.ExternalID = p.ExternalID
	case records.CountPayload:
		out.ContentDate = p.Date
		out.CompletedCount = p.CompletedCount
		out.Notes = p.Notes
	case nil:
		return content.Record{}, fmt.Errorf("%w: record has no payload", content.ErrInvalidInput)
	default:
		return content.Record{}, fmt.Errorf("%w: unsupported payload %T", content.ErrInvalidInput, p)
	}
	return out, nil
}
