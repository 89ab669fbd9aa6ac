package documents

// Metadata is the object-store metadata captured when a document is processed.
type Metadata struct {
	ContentType   string            `dynamodbav:"content_type" json:"content_type"`
	ContentLength int64             `dynamodbav:"content_length" json:"content_length"`
	LastModified  string            `dynamodbav:"last_modified" json:"last_modified"`
	ETag          string            `dynamodbav:"etag" json:"etag"`
	Metadata      map[string]string `dynamodbav:"metadata" json:"metadata"`
}

// Record is one processed upload as stored in the record store.
type Record struct {
	DocumentID      string   `dynamodbav:"document_id" json:"document_id"`
	Bucket          string   `dynamodbav:"bucket" json:"bucket"`
	ObjectKey       string   `dynamodbav:"object_key" json:"object_key"`
	UploadTimestamp int64    `dynamodbav:"upload_timestamp" json:"upload_timestamp"`
	ProcessedAt     string   `dynamodbav:"processed_at" json:"processed_at"`
	Metadata        Metadata `dynamodbav:"metadata" json:"metadata"`
	RawText         string   `dynamodbav:"raw_text" json:"raw_text"`
	Summary         string   `dynamodbav:"summary" json:"summary"`
	TextLength      int      `dynamodbav:"text_length" json:"text_length"`
	SummaryLength   int      `dynamodbav:"summary_length" json:"summary_length"`
}

func cloneTags(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
