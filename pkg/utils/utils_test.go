package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUID(t *testing.T) {
	a := UUID()
	b := UUID()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestContains(t *testing.T) {
	types := []int8{1, 2, 3}

	assert.True(t, Contains(types, int8(2)))
	assert.False(t, Contains(types, int8(4)))
	assert.False(t, Contains([]string{}, "a"))
}

func TestUniqueKeepsOrder(t *testing.T) {
	ids := []int64{3, 1, 3, 2, 1}

	assert.Equal(t, []int64{3, 1, 2}, Unique(ids))
	assert.Empty(t, Unique([]int64{}))
}

func TestFilter(t *testing.T) {
	nums := []int{1, 2, 3, 4, 5}
	even := Filter(nums, func(n int) bool { return n%2 == 0 })

	assert.Equal(t, []int{2, 4}, even)
}

func TestMap(t *testing.T) {
	ids := []int64{1, 2, 3}
	keys := Map(ids, func(id int64) string { return strconv.FormatInt(id, 10) })

	assert.Equal(t, []string{"1", "2", "3"}, keys)
}

func TestPtr(t *testing.T) {
	p := Ptr(int8(1))

	assert.NotNil(t, p)
	assert.Equal(t, int8(1), *p)
}
