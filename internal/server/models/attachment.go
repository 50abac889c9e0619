package models

import "time"

// Attachment describes an image stored in object storage under
// StorageKey(creatorID, ID). A row exists only once the object was written.
type Attachment struct {
	ID          string
	ListingID   string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// AttachmentAccess is what the presigned gateway needs to decide whether
// an attachment may be served and where it lives.
type AttachmentAccess struct {
	AttachmentID string
	CreatorID    string
	OwnerStatus  Status
}

// StorageKey is the object-storage key of an attachment.
func StorageKey(creatorID, attachmentID string) string {
	return creatorID + "/" + attachmentID
}
