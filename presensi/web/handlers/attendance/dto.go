package attendance

import (
	"mime/multipart"

	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/presensi/report"
)

// TransitionRequest is the body of a check-in or check-out. JSON carries
// evidence as a reference or data URL; multipart forms send a file part
// named "evidence" or a reference in "evidence_ref".
type TransitionRequest struct {
	Latitude     *float64              `json:"latitude" form:"latitude" binding:"required"`
	Longitude    *float64              `json:"longitude" form:"longitude" binding:"required"`
	Evidence     string                `json:"evidence" form:"evidence_ref"`
	EvidenceFile *multipart.FileHeader `json:"-" form:"evidence"`
}

func (r TransitionRequest) Location() model.Location {
	return model.Location{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

type ReportQuery struct {
	Name  string `form:"name"`
	Start string `form:"start"`
	End   string `form:"end"`
	Order string `form:"order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

type UserDTO struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Role  string  `json:"role"`
}

type WhoAmIDTO struct {
	UserID      uint        `json:"userId"`
	Role        string      `json:"role"`
	User        *UserDTO    `json:"user"`
	OpenSession *report.Row `json:"openSession"`
}
