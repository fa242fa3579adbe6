package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/geocoder89/lecturehub/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError = validation.FieldError

var bindingNamesOnce sync.Once

// useJSONFieldNames points gin's validator at json tag names so binding
// errors name fields the way clients send them.
func useJSONFieldNames() {
	bindingNamesOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			validation.UseJSONNames(v)
		}
	})
}

// BindJSON decodes and validates the body, answering 400 itself on failure.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	useJSONFieldNames()

	if err := ctx.ShouldBindJSON(out); err != nil {
		respondBindError(ctx, err)
		return false
	}

	return true
}

// respondBindError answers 413 when the body hit the MaxBodyBytes limit
// mid-read, 400 otherwise.
func respondBindError(ctx *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
		return
	}

	RespondBadRequest(ctx, "Invalid request body", parseBindError(err))
}

// parseBindError turns a decode or validation failure into response details.
func parseBindError(err error) interface{} {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return gin.H{"fields": validation.FromValidator(verrs)}
	}

	if errors.Is(err, io.EOF) {
		return gin.H{"json": "empty_body"}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	// Field is already the json key path, e.g. "items.0.name"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := strings.TrimSpace(typeErr.Field)

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			}},
		}
	}

	return gin.H{"reason": err.Error()}
}
