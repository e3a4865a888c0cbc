package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nour-MZ/Nomada/internal/models"
)

func TestValidate_AppliesDefaultsAndDropsUnknown(t *testing.T) {
	c := Default()

	args, err := c.Validate(SearchFlights, map[string]any{
		"origin":         "LHR",
		"destination":    "JFK",
		"departure_date": "2025-12-25",
		"max_offers":     "3",
		"favourite_food": "pizza",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, args["max_offers"])
	assert.Equal(t, "economy", args["cabin_class"])
	assert.Equal(t, 1, args["passengers"])
	assert.NotContains(t, args, "favourite_food")
}

func TestValidate_Errors(t *testing.T) {
	c := Default()

	tests := []struct {
		name        string
		tool        string
		args        map[string]any
		wantMissing []string
		wantUnknown bool
	}{
		{
			name:        "unknown tool",
			tool:        "teleport",
			wantUnknown: true,
		},
		{
			name:        "missing required fields",
			tool:        SearchFlights,
			args:        map[string]any{"origin": "LHR", "destination": " "},
			wantMissing: []string{"destination", "departure_date"},
		},
		{
			name: "wrong type",
			tool: SelectOffer,
			args: map[string]any{"index": 1.5},
		},
		{
			name: "object expected",
			tool: CreateOrder,
			args: map[string]any{"offer_id": "off_1", "passengers": []any{}, "payment_source": "tok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Validate(tt.tool, tt.args)
			require.Error(t, err)

			if tt.wantUnknown {
				var unknown *models.UnknownToolError
				assert.True(t, errors.As(err, &unknown))
				return
			}
			var vf *models.ValidationFailure
			require.True(t, errors.As(err, &vf))
			if tt.wantMissing != nil {
				assert.Equal(t, tt.wantMissing, vf.MissingFields)
			}
		})
	}
}

func TestValidate_Coercion(t *testing.T) {
	c := New(Tool{
		Name: "t",
		Fields: []Field{
			{Name: "n", Type: TypeNumber},
			{Name: "b", Type: TypeBoolean},
			{Name: "s", Type: TypeString},
			{Name: "a", Type: TypeArray},
		},
	})

	args, err := c.Validate("t", map[string]any{
		"n": "12.5",
		"b": "true",
		"s": 42.0,
		"a": []string{"museum"},
	})
	require.NoError(t, err)
	assert.Equal(t, 12.5, args["n"])
	assert.Equal(t, true, args["b"])
	assert.Equal(t, "42", args["s"])
	assert.Equal(t, []any{"museum"}, args["a"])
}

func TestValidate_CommaStringBecomesList(t *testing.T) {
	c := Default()

	args, err := c.Validate(PlanTrip, map[string]any{
		"origin":         "JFK",
		"destination":    "LHR",
		"departure_date": "2025-12-20",
		"budget":         2000,
		"interests":      "museums, food",
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"museums", "food"}, args["interests"])

	args, err = c.Validate(SearchHotels, map[string]any{
		"destination_code": "LON",
		"check_in":         "2025-12-21",
		"check_out":        "2025-12-24",
		"keywords":         "pool",
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"pool"}, args["keywords"])

	_, err = c.Validate(SearchHotels, map[string]any{
		"destination_code": "LON",
		"check_in":         "2025-12-21",
		"check_out":        "2025-12-24",
		"keywords":         " , ",
	})
	assert.Error(t, err)
}

func TestPromptListsEveryTool(t *testing.T) {
	c := Default()
	prompt := c.Prompt()
	for _, name := range c.Names() {
		assert.Contains(t, prompt, "- "+name+":")
	}
	assert.Contains(t, prompt, "origin: string (required)")
	assert.Contains(t, prompt, `cabin_class: string (optional) default="economy"`)
}

func TestOutputs(t *testing.T) {
	c := Default()
	search, _ := c.Lookup(SearchFlights)
	order, _ := c.Lookup(CreateOrder)
	cancel, _ := c.Lookup(CancelOrder)

	assert.Equal(t, OutputJSON, search.Output)
	assert.Equal(t, OutputConfirmation, order.Output)
	assert.Equal(t, OutputNarrate, cancel.Output)
}
