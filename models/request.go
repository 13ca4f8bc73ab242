package models

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields under their json or form names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

// ListQuery holds the pagination parameters shared by listing endpoints
type ListQuery struct {
	Page    int `form:"page" validate:"gte=1"`
	PerPage int `form:"per_page" validate:"gte=1,lte=100"`
}

// ListChildrenQuery holds the query parameters of the children listing
type ListChildrenQuery struct {
	ListQuery
	Depth int `form:"depth" validate:"gte=1,lte=5"`
}

// PutTranslationRequest represents the request body for storing a translation
type PutTranslationRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

// TranslationParams holds the path parameters of the translation endpoint
type TranslationParams struct {
	Locale string `json:"locale" validate:"required,min=2,max=5,bcp47_language_tag"`
}

// Validate validates the create node request
func (r *CreateNodeRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the pagination parameters
func (q *ListQuery) Validate() error {
	return validate.Struct(q)
}

// Validate validates the children listing parameters
func (q *ListChildrenQuery) Validate() error {
	return validate.Struct(q)
}

// Validate validates the translation request
func (r *PutTranslationRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the translation path parameters
func (p *TranslationParams) Validate() error {
	return validate.Struct(p)
}
