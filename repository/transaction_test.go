package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionFilter_Paged(t *testing.T) {
	cases := []struct {
		name          string
		in            TransactionFilter
		limit, offset int
	}{
		{"defaults", TransactionFilter{}, DefaultListLimit, 0},
		{"keeps valid", TransactionFilter{Limit: 20, Offset: 40}, 20, 40},
		{"caps limit", TransactionFilter{Limit: 500}, MaxListLimit, 0},
		{"negative offset", TransactionFilter{Limit: 5, Offset: -1}, 5, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Paged()
			assert.Equal(t, tc.limit, got.Limit)
			assert.Equal(t, tc.offset, got.Offset)
		})
	}
}
