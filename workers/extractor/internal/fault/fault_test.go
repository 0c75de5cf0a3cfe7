package fault

import (
	"strings"
	"testing"

	"bingads-extractor/workers/extractor/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_OperationErrors(t *testing.T) {
	f := Fault{
		String: "Invalid client data. Check the SOAP fault details for more information.",
		Detail: map[string]interface{}{
			"ApiFault": map[string]interface{}{
				"OperationErrors": map[string]interface{}{
					"OperationError": []interface{}{
						map[string]interface{}{"Code": float64(106), "ErrorCode": "UserIsNotAuthorized", "Message": "The user is not authorized."},
						map[string]interface{}{"Code": float64(1102), "ErrorCode": "InvalidAccountId", "Message": "The account ID is invalid."},
					},
				},
			},
		},
	}

	err := Translate(f)
	require.Error(t, err)
	assert.Equal(t, domain.VendorFault, domain.KindOf(err))

	var e *domain.Error
	require.ErrorAs(t, err, &e)
	lines := strings.Split(e.Message, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "The user is not authorized.")
	assert.Contains(t, lines[1], "The account ID is invalid.")
	assert.Equal(t, "ErrorCode: UserIsNotAuthorized, Code: 106, Message: The user is not authorized.", lines[0])
}

func TestTranslate_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		detail   map[string]interface{}
		expected string
	}{
		{
			name: "single ad api error",
			detail: map[string]interface{}{
				"AdApiFaultDetail": map[string]interface{}{
					"Errors": map[string]interface{}{
						"AdApiError": map[string]interface{}{"Code": "105", "Message": "Invalid credentials.", "Details": "token expired"},
					},
				},
			},
			expected: "Code: 105, Details: token expired, Message: Invalid credentials.",
		},
		{
			name: "batch error with field path",
			detail: map[string]interface{}{
				"ApiFaultDetail": map[string]interface{}{
					"BatchErrors": map[string]interface{}{
						"BatchError": []interface{}{
							map[string]interface{}{"Code": "4200", "FieldPath": "Columns[3]", "Message": "bad column"},
						},
					},
				},
			},
			expected: "Code: 4200, FieldPath: Columns[3], Message: bad column",
		},
		{
			name: "batch errors win over operation errors",
			detail: map[string]interface{}{
				"ApiFaultDetail": map[string]interface{}{
					"BatchErrors": map[string]interface{}{
						"BatchError": map[string]interface{}{"Message": "from batch"},
					},
					"OperationErrors": map[string]interface{}{
						"OperationError": map[string]interface{}{"Message": "from operation"},
					},
				},
			},
			expected: "Message: from batch",
		},
		{
			name: "editorial error",
			detail: map[string]interface{}{
				"EditorialApiFaultDetail": map[string]interface{}{
					"EditorialErrors": map[string]interface{}{
						"EditorialError": map[string]interface{}{"ErrorCode": "EditorialAdTitleBlankAcrossAllAssociations", "Message": "blank title"},
					},
				},
			},
			expected: "ErrorCode: EditorialAdTitleBlankAcrossAllAssociations, Message: blank title",
		},
		{
			name: "exception detail",
			detail: map[string]interface{}{
				"ExceptionDetail": map[string]interface{}{"Message": "There was an error deserializing the object."},
			},
			expected: "There was an error deserializing the object.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Translate(Fault{String: "fault string", Detail: tt.detail})

			var e *domain.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, domain.VendorFault, e.Kind)
			assert.Equal(t, tt.expected, e.Message)
		})
	}
}

func TestTranslate_FaultStringFallback(t *testing.T) {
	err := Translate(Fault{String: "  Service unavailable  ", Detail: map[string]interface{}{"Other": "x"}})

	var e *domain.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, domain.VendorFault, e.Kind)
	assert.Equal(t, "Service unavailable", e.Message)
}

func TestTranslate_Unrecognized(t *testing.T) {
	err := Translate(Fault{Detail: map[string]interface{}{"NewFaultShape": map[string]interface{}{}}})

	require.Error(t, err)
	assert.Equal(t, domain.UnrecognizedFault, domain.KindOf(err))
	assert.Contains(t, err.Error(), "NewFaultShape")
	assert.False(t, domain.IsUserError(err))
}

func TestTranslate_EmptyShapeFallsThrough(t *testing.T) {
	err := Translate(Fault{
		String: "fallback",
		Detail: map[string]interface{}{
			"ApiFault": map[string]interface{}{
				"OperationErrors": map[string]interface{}{
					"OperationError": []interface{}{},
				},
			},
		},
	})

	var e *domain.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "fallback", e.Message)
}
