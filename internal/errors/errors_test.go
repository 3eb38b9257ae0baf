package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderSetsMetadata(t *testing.T) {
	t.Parallel()

	err := Newf("snapshot of %s failed", "recordings").
		Component("backup").
		Category(CategoryDatabase).
		Context("attempt_id", "abc").
		Build()

	assert.Equal(t, "snapshot of recordings failed", err.Error())
	assert.Equal(t, "backup", err.Component)
	assert.Equal(t, CategoryDatabase, err.Category)
	assert.Equal(t, "abc", err.GetContext()["attempt_id"])
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	err := Newf("something broke").Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Nil(t, err.GetContext())
}

func TestBuilderInheritsCauseCategory(t *testing.T) {
	t.Parallel()

	cause := Newf("no backup exists").
		Component("backup").
		Category(CategoryRollbackUnavailable).
		Build()

	wrapped := Newf("rollback refused: %w", cause).
		Component("engine").
		Build()

	assert.Equal(t, CategoryRollbackUnavailable, wrapped.Category)
	assert.True(t, IsRollbackUnavailable(wrapped))
}

func TestEnhancedErrorUnwrap(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("sentinel")
	wrapped := New(fmt.Errorf("outer: %w", sentinel)).Build()

	assert.True(t, Is(wrapped, sentinel))
	require.Equal(t, "outer: sentinel", wrapped.Error())
}

func TestCategoryPredicates(t *testing.T) {
	t.Parallel()

	verification := Newf("row-count mismatch").Category(CategoryVerification).Build()
	concurrency := Newf("lock held").Category(CategoryConcurrency).Build()

	assert.True(t, IsVerification(verification))
	assert.False(t, IsVerification(concurrency))
	assert.True(t, IsConcurrency(concurrency))
	assert.True(t, IsCategory(verification, CategoryVerification))
	assert.False(t, IsCategory(NewStd("plain"), CategoryVerification))
	assert.False(t, IsNotFound(verification))
}

func TestGetContextReturnsCopy(t *testing.T) {
	t.Parallel()

	err := Newf("x").Context("key", "value").Build()
	ctx := err.GetContext()
	ctx["key"] = "mutated"
	assert.Equal(t, "value", err.GetContext()["key"])
}

func TestEnhancedErrorIsByCategory(t *testing.T) {
	t.Parallel()

	a := Newf("a").Category(CategoryState).Build()
	b := Newf("b").Category(CategoryState).Build()
	c := Newf("c").Category(CategoryDatabase).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}
