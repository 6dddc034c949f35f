package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Method   string `validate:"required,oneof=scan manual code"`
	Code     string `validate:"omitempty,numeric,min=4,max=9"`
	Capacity int    `validate:"gt=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name   string
		input  sample
		fields []string
		tags   []string
	}{
		{"valid", sample{Method: "scan", Capacity: 1}, nil, nil},
		{"missing method", sample{Capacity: 1}, []string{"Method"}, []string{"required"}},
		{"unknown method", sample{Method: "wave", Capacity: 1}, []string{"Method"}, []string{"oneof"}},
		{"letters in code", sample{Method: "code", Code: "12a4", Capacity: 1}, []string{"Code"}, []string{"numeric"}},
		{"zero capacity", sample{Method: "scan"}, []string{"Capacity"}, []string{"gt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStruct(tt.input)
			require.Len(t, errs, len(tt.fields))
			for i := range errs {
				assert.Equal(t, tt.fields[i], errs[i].Field)
				assert.Equal(t, tt.tags[i], errs[i].Tag)
				assert.NotEmpty(t, errs[i].Message)
			}
		})
	}
}

func TestRespondWithValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithValidationErrors(c, ValidateStruct(sample{}))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ValidationErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Len(t, body.Details, 2)
}
