package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/idelsangithub/node-tree-api/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Fixed response messages
const (
	msgNodeCreated        = "Node created successfully."
	msgNodeDeleted        = "Node deleted successfully."
	msgTranslationSaved   = "Translation saved successfully."
	msgNodeNotFound       = "Node not found."
	msgParentNotFound     = "Parent node not found."
	msgInvalidParent      = "The selected parent_id is invalid."
	msgHasChildren        = "Cannot delete the node because it has children."
	msgInvalidBody        = "The request body is invalid."
	msgInvalidData        = "The given data was invalid."
	msgCreateFailed       = "Error creating the node."
	msgListRootsFailed    = "Error listing root nodes."
	msgListChildrenFailed = "Error listing child nodes."
	msgDeleteFailed       = "Error deleting the node."
	msgTranslationFailed  = "Error saving the translation."
	msgInternal           = "Internal server error."
)

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// respondInvalid answers 422 with a message describing the first invalid field
func respondInvalid(c *gin.Context, err error) {
	respondMessage(c, http.StatusUnprocessableEntity, validationMessage(err))
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		unit := ""
		if fe.Kind() == reflect.String {
			unit = " characters"
		}
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("The %s field is required.", fe.Field())
		case "gt":
			return fmt.Sprintf("The %s field must be greater than %s.", fe.Field(), fe.Param())
		case "gte", "min":
			return fmt.Sprintf("The %s field must be at least %s%s.", fe.Field(), fe.Param(), unit)
		case "lte", "max":
			return fmt.Sprintf("The %s field must not be greater than %s%s.", fe.Field(), fe.Param(), unit)
		default:
			return fmt.Sprintf("The %s field is invalid.", fe.Field())
		}
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return fmt.Sprintf("The %s field %s.", validationErr.Field, validationErr.Message)
	}
	return msgInvalidData
}
