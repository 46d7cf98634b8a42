package val_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/val"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schema struct {
	Name  string `json:"name"  validate:"notblank"`
	Kind  string `json:"kind"  validate:"oneof=a b"`
	Count int    `json:"count" validate:"gte=0"`
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name       string
		in         schema
		wantFields []string
	}{
		{name: "valid", in: schema{Name: "x", Kind: "a"}},
		{name: "blank name", in: schema{Name: "  \t", Kind: "b"}, wantFields: []string{"name"}},
		{name: "everything wrong", in: schema{Kind: "c", Count: -1}, wantFields: []string{"name", "kind", "count"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := val.ValidateSchema(tc.in)
			if len(tc.wantFields) == 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errx.IsCodeIn(err, val.CodeValidationFailed))

			e := errx.AsErrorX(err)
			assert.Equal(t, errx.T_Validation, e.Type())
			fields := e.Fields()
			assert.Len(t, fields, len(tc.wantFields))
			for _, f := range tc.wantFields {
				assert.Contains(t, fields, f)
			}
		})
	}
}
