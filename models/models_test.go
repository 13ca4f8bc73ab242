package models

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackTitle(t *testing.T) {
	words := []string{"one", "two", "three", "four", "five", "six"}
	for i, word := range words {
		assert.Equal(t, word, FallbackTitle(int64(i+1)))
	}
	assert.Equal(t, "unknown", FallbackTitle(0))
	assert.Equal(t, "unknown", FallbackTitle(7))
	assert.Equal(t, "unknown", FallbackTitle(-1))
}

func TestNewPage(t *testing.T) {
	page := NewPage(nil, 0, 15, 1)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.LastPage)

	assert.Equal(t, 1, NewPage(nil, 15, 15, 1).LastPage)
	assert.Equal(t, 2, NewPage(nil, 16, 15, 1).LastPage)
	assert.Equal(t, 7, NewPage(nil, 100, 15, 1).LastPage)
}

func TestCreateNodeRequestValidate(t *testing.T) {
	assert.NoError(t, (&CreateNodeRequest{}).Validate())

	parent := int64(3)
	assert.NoError(t, (&CreateNodeRequest{ParentID: &parent}).Validate())

	zero := int64(0)
	err := (&CreateNodeRequest{ParentID: &zero}).Validate()
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "parent_id", fieldErrs[0].Field())
}

func TestListChildrenQueryValidate(t *testing.T) {
	valid := ListChildrenQuery{ListQuery: ListQuery{Page: 1, PerPage: 15}, Depth: 1}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		query ListChildrenQuery
		field string
	}{
		{"depth too deep", ListChildrenQuery{ListQuery: ListQuery{Page: 1, PerPage: 15}, Depth: 6}, "depth"},
		{"depth zero", ListChildrenQuery{ListQuery: ListQuery{Page: 1, PerPage: 15}, Depth: 0}, "depth"},
		{"per page too large", ListChildrenQuery{ListQuery: ListQuery{Page: 1, PerPage: 101}, Depth: 1}, "per_page"},
		{"page zero", ListChildrenQuery{ListQuery: ListQuery{Page: 0, PerPage: 15}, Depth: 1}, "page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fieldErrs validator.ValidationErrors
			require.ErrorAs(t, tt.query.Validate(), &fieldErrs)
			assert.Equal(t, tt.field, fieldErrs[0].Field())
		})
	}
}

func TestTranslationValidate(t *testing.T) {
	assert.NoError(t, (&TranslationParams{Locale: "es"}).Validate())
	assert.NoError(t, (&TranslationParams{Locale: "pt-br"}).Validate())
	assert.Error(t, (&TranslationParams{Locale: "e"}).Validate())
	assert.Error(t, (&TranslationParams{Locale: "12"}).Validate())

	assert.NoError(t, (&PutTranslationRequest{Title: "uno"}).Validate())
	assert.Error(t, (&PutTranslationRequest{Title: ""}).Validate())
}
