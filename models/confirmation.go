package models

import (
	"strings"
	"time"
)

type EvidenceType string

const (
	EvidenceImage    EvidenceType = "image"
	EvidenceVideo    EvidenceType = "video"
	EvidenceDocument EvidenceType = "document"
)

// Evidence is an append-only proof of work attached on completion. Only the storage reference is kept.
type Evidence struct {
	ID         string       `bson:"id" json:"id"`
	BookingID  string       `bson:"bookingId" json:"booking_id"`
	UploadedBy string       `bson:"uploadedBy" json:"uploaded_by"`
	Type       EvidenceType `bson:"type" json:"type"`
	FileRef    string       `bson:"fileRef" json:"file_ref"`
	PublicID   string       `bson:"publicId,omitempty" json:"-"`
	Checksum   string       `bson:"checksum,omitempty" json:"checksum,omitempty"`
	Caption    string       `bson:"caption,omitempty" json:"caption,omitempty"`
	UploadedAt time.Time    `bson:"uploadedAt" json:"uploaded_at"`
}

// EvidenceUpload is one file handed to the completion operation before storage.
type EvidenceUpload struct {
	Filename    string
	ContentType string
	Caption     string
	Data        []byte
}

// EvidenceTypeFor classifies an upload by its content type.
func EvidenceTypeFor(contentType string) EvidenceType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return EvidenceImage
	case strings.HasPrefix(contentType, "video/"):
		return EvidenceVideo
	default:
		return EvidenceDocument
	}
}
