package material

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/edubanco/recursos/core"
)

// MaxFileSize caps uploads at 10MB; anything larger is rejected before a
// single byte goes over the wire.
const MaxFileSize = 10 << 20

// AllowedFileTypes is the upload MIME allow-list.
var AllowedFileTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.ms-powerpoint": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.ms-excel": true,
	"image/jpeg":               true,
	"image/png":                true,
	"image/gif":                true,
	"text/plain":               true,
}

// FileInfo is the metadata of the attached file, validated before the
// multipart request is built.
type FileInfo struct {
	Name        string
	Size        int64
	ContentType string
}

func (fi FileInfo) validate() []core.FieldError {
	var flds []core.FieldError
	if fi.Name == "" || fi.Size == 0 {
		flds = append(flds, core.FieldError{Field: "file", Error: "arquivo é obrigatório"})
		return flds
	}
	if fi.Size > MaxFileSize {
		flds = append(flds, core.FieldError{
			Field: "file",
			Error: fmt.Sprintf("arquivo deve ter no máximo %dMB", MaxFileSize>>20),
		})
	}
	if !AllowedFileTypes[fi.ContentType] {
		flds = append(flds, core.FieldError{
			Field: "file",
			Error: "tipo de arquivo não permitido. Use PDF, DOC, PPT, XLS, imagens ou TXT",
		})
	}
	return flds
}

// NewMaterial is the upload form. Validation happens once at this boundary;
// the transport layer receives an already-valid payload.
type NewMaterial struct {
	Title             string   `json:"title" form:"title" validate:"required,min=3,max=100"`
	Description       string   `json:"description" form:"description" validate:"required,min=10,max=1000"`
	Discipline        string   `json:"discipline" form:"discipline" validate:"required,min=2"`
	Grade             string   `json:"grade" form:"grade" validate:"required"`
	MaterialType      Type     `json:"materialType" form:"materialType" validate:"required,materialtype"`
	Difficulty        Difficulty `json:"difficulty" form:"difficulty" validate:"required,difficulty"`
	SubTopic          string   `json:"subTopic" form:"subTopic" validate:"omitempty,max=200"`
	EstimatedDuration int      `json:"estimatedDuration" form:"estimatedDuration" validate:"omitempty,gt=0"`
	Tags              []string `json:"tags" form:"tags"`

	File FileInfo `json:"-" form:"-"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.Discipline = core.CleanString(nm.Discipline)
	nm.Grade = core.CleanString(nm.Grade)
	nm.SubTopic = core.CleanString(nm.SubTopic)

	if err := validate.Struct(nm); err != nil {
		return err
	}
	if flds := nm.File.validate(); flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// UpdateMaterial defines what may be changed on an existing material; empty
// fields are left untouched by the backend.
type UpdateMaterial struct {
	Title        string     `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Description  string     `json:"description,omitempty" validate:"omitempty,min=10,max=1000"`
	Discipline   string     `json:"discipline,omitempty" validate:"omitempty,min=2"`
	Grade        string     `json:"grade,omitempty"`
	MaterialType Type       `json:"materialType,omitempty" validate:"omitempty,materialtype"`
	Difficulty   Difficulty `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
	SubTopic     string     `json:"subTopic,omitempty" validate:"omitempty,max=200"`
}

func (um *UpdateMaterial) Validate(validate *validator.Validate) error {
	um.Title = core.CleanString(um.Title)
	um.Description = core.CleanString(um.Description)
	um.Discipline = core.CleanString(um.Discipline)
	um.Grade = core.CleanString(um.Grade)
	um.SubTopic = core.CleanString(um.SubTopic)
	return validate.Struct(um)
}

// NewRating requires an integer 1..5; a zero/absent rating never reaches
// the network.
type NewRating struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

func (nr *NewRating) Validate(validate *validator.Validate) error {
	nr.Comment = core.CleanString(nr.Comment)
	return validate.Struct(nr)
}

// ShareRequest sends a material to a colleague by email.
type ShareRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message,omitempty" validate:"omitempty,max=500"`
}

func (sr *ShareRequest) Validate(validate *validator.Validate) error {
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	sr.Message = core.CleanString(sr.Message)
	return validate.Struct(sr)
}
