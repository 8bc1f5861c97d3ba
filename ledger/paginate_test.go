package ledger_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

func Test_BuildPage_FirstPage_OfManyItems(t *testing.T) {
	// arrange
	items := numberedItems(25)

	// act
	page, err := ledger.BuildPage(items, 0, 10)

	// assert
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, "item-0", page.Items[0])
	assert.Equal(t, 25, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)
}

func Test_BuildPage_LastPage_IsShort(t *testing.T) {
	// act
	page, err := ledger.BuildPage(numberedItems(25), 2, 10)

	// assert
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, "item-20", page.Items[0])
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func Test_BuildPage_OnePastLastPage_ReturnsEmptyWithoutError(t *testing.T) {
	// act
	page, err := ledger.BuildPage(numberedItems(25), 3, 10)

	// assert
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasNext)
}

func Test_BuildPage_EmptyInput_YieldsEmptyFirstPage(t *testing.T) {
	// act
	page, err := ledger.BuildPage([]string{}, 0, 10)

	// assert
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrevious)
}

func Test_BuildPage_Error_WhenIndexNegative(t *testing.T) {
	// act
	_, err := ledger.BuildPage(numberedItems(5), -1, 10)

	// assert
	assert.ErrorIs(t, err, ledger.ErrNegativePageIndex)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func Test_BuildPage_Error_WhenSizeNotPositive(t *testing.T) {
	// act
	_, err := ledger.BuildPage(numberedItems(5), 0, 0)

	// assert
	assert.ErrorIs(t, err, ledger.ErrInvalidPageSize)
}

func Test_BuildPage_ConcatenatingAllPages_ReproducesOrderedList(t *testing.T) {
	for _, total := range []int{0, 1, 9, 10, 11, 25, 100} {
		t.Run(fmt.Sprintf("%d_items", total), func(t *testing.T) {
			// arrange
			items := numberedItems(total)
			expectedPages := (total + ledger.DefaultPageSize - 1) / ledger.DefaultPageSize

			// act
			var concatenated []string
			nonEmptyPages := 0
			for index := 0; ; index++ {
				page, err := ledger.BuildPage(items, index, ledger.DefaultPageSize)
				require.NoError(t, err)

				if len(page.Items) > 0 {
					nonEmptyPages++
				}

				concatenated = append(concatenated, page.Items...)

				if !page.HasNext {
					break
				}
			}

			// assert
			assert.Equal(t, items, numberedItems(len(concatenated)))
			assert.Equal(t, total, len(concatenated))
			assert.Equal(t, expectedPages, nonEmptyPages)
		})
	}
}

func numberedItems(count int) []string {
	items := make([]string, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, fmt.Sprintf("item-%d", i))
	}

	return items
}
