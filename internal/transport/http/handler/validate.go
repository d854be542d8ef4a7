package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// fieldMessages maps "Field.tag" to the message shown for the first failing rule.
var fieldMessages = map[string]string{
	"Email.required": "Email is required.",
	"Email.email":    "Please enter a valid email address.",
	"Email.min":      "Email is required.",
	"Email.max":      "Email must be 255 characters or fewer.",

	"Password.required": "Password must be at least 8 characters long.",
	"Password.min":      "Password must be at least 8 characters long.",
	"Password.max":      "Password must be 72 characters or fewer.",

	"Name.min": "Name must be at least 2 characters long.",
	"Name.max": "Name must be 80 characters or fewer.",

	"Token.required": "Verification token is required.",
}

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// bindAndValidate decodes the JSON body into req, lets normalize clean it up,
// then validates it with gin's validator. It returns the client-facing
// message for the first failure, or "" on success.
func bindAndValidate(c *gin.Context, req any, normalize func(), fallback string) string {
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil {
		return fallback
	}
	if normalize != nil {
		normalize()
	}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return validationMessage(err, fallback)
	}
	return ""
}

func validationMessage(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fallback
	}
	fe := verrs[0]
	if msg, ok := fieldMessages[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	return fallback
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeName trims name and treats an empty value as absent.
func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
