package common

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapperAndReducer(t *testing.T) {
	ids := []uint{3, 1, 2}

	labels := Mapper(ids, func(id uint) string { return "#" + strconv.Itoa(int(id)) })
	assert.Equal(t, []string{"#3", "#1", "#2"}, labels)

	sum := Reducer(ids, func(acc uint, id uint) uint { return acc + id }, 0)
	assert.Equal(t, uint(6), sum)
}

func TestFilter(t *testing.T) {
	evens := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4}, evens)

	assert.NotNil(t, Filter([]int{}, func(int) bool { return true }))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("FIRE_TEST_VALUE", "  42 ")
	assert.Equal(t, "42", EnvOr("FIRE_TEST_VALUE", "x"))
	assert.Equal(t, "x", EnvOr("FIRE_TEST_MISSING", "x"))

	t.Setenv("FIRE_TEST_BOOL", "true")
	assert.True(t, EnvBool("FIRE_TEST_BOOL", false))
	t.Setenv("FIRE_TEST_BOOL", "nope")
	assert.False(t, EnvBool("FIRE_TEST_BOOL", false))
}
