package response

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/lms-backend/internal/platform/apierr"
)

// APIError is the body of every failed request.
type APIError struct {
	Message string      `json:"message"`
	Kind    apierr.Kind `json:"kind"`
}

// RespondErr maps err onto the error taxonomy and writes it.
func RespondErr(c *gin.Context, err error) {
	ae := classify(err)
	if ae == nil {
		ae = apierr.Store(errors.New("unknown error"))
	}
	if ae.Kind == apierr.KindStore {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(ae.Status(), APIError{Message: ae.PublicMessage(), Kind: ae.Kind})
}

// RespondBindErr reports a request body or query that failed to bind.
func RespondBindErr(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		RespondErr(c, err)
		return
	}
	RespondErr(c, apierr.New(apierr.KindValidation, "invalid request body", err))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

func classify(err error) *apierr.Error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return apierr.Validation(validationMessage(ve))
	}
	return apierr.From(err)
}

func validationMessage(ve validator.ValidationErrors) string {
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email", field))
		case "min", "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max", "lte":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(parts, "; ")
}

var registerOnce sync.Once

// UseJSONFieldNames makes binding errors report json names instead of Go
// field names.
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}
