package validation

import (
	"errors"
	"testing"

	"modulehub/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receiptPayload struct {
	ProductID          string `json:"productId" validate:"required"`
	TransactionDate    string `json:"transactionDate" validate:"required"`
	TransactionID      string `json:"transactionId" validate:"required"`
	TransactionReceipt string `json:"transactionReceipt" validate:"required"`
}

type signupPayload struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type videoPayload struct {
	Source string `form:"source" validate:"video_source"`
}

func TestStruct_FlattensFieldErrors(t *testing.T) {
	err := Struct(receiptPayload{ProductID: "gold"})
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)

	want := map[string]string{
		"transactionDate":    "This field is required.",
		"transactionId":      "This field is required.",
		"transactionReceipt": "This field is required.",
	}
	if diff := cmp.Diff(want, appErr.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestStruct_CustomRules(t *testing.T) {
	err := Struct(signupPayload{Name: "Ada", Email: "not-an-email", Password: "short"})
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "password")

	assert.NoError(t, Struct(signupPayload{Name: "Ada", Email: "ada@example.com", Password: "engine1843"}))

	assert.NoError(t, Struct(videoPayload{}))
	assert.NoError(t, Struct(videoPayload{Source: "vimeo"}))

	err = Struct(videoPayload{Source: "tiktok"})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, `"tiktok" is not a valid choice.`, appErr.Fields["source"])
}
