package model

// SourceDataItem is one answered question of a submission.
type SourceDataItem struct {
	ID             string `json:"id"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	SourceRecordID string `json:"sourceRecordId,omitempty"`
}

// SubmissionRecord is one completed form response ("source record").
type SubmissionRecord struct {
	ID         string           `json:"id"`
	FormID     string           `json:"formId"`
	SourceData []SourceDataItem `json:"sourceData"`
}

// CreateSourceRecordRequest is the body of a submission call.
type CreateSourceRecordRequest struct {
	FormID     string            `json:"formId"`
	SourceData map[string]string `json:"sourceData"`
}
