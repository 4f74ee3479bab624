package collation_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/xlsx-report-engine/internal/collation"
)

func TestVietnameseOrdersBreveBeforeB(t *testing.T) {
	t.Parallel()

	cmp := collation.Vietnamese()
	words := []string{"Bánh", "Ăn", "An"}
	sort.Slice(words, func(i, j int) bool { return cmp.Less(words[i], words[j]) })

	assert.Equal(t, []string{"An", "Ăn", "Bánh"}, words)
}

func TestBinaryDiffersFromVietnamese(t *testing.T) {
	t.Parallel()

	assert.Positive(t, collation.Binary("Ăn", "Bánh"))
	assert.Negative(t, collation.Vietnamese()("Ăn", "Bánh"))
}

func TestComparatorIsTotal(t *testing.T) {
	t.Parallel()

	cmp := collation.Vietnamese()
	assert.Zero(t, cmp("Dầu", "Dầu"))
	assert.NotZero(t, cmp("dầu", "Dầu"))
}
