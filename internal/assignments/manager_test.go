package assignments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	m := NewManager()

	deadline := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	a, err := m.Create("Read chapter 4", "Math", "Pages 80-110", deadline)
	require.NoError(t, err)
	assert.Equal(t, uint(1), a.ID)
	assert.Equal(t, "Read chapter 4", a.Title)
	assert.Equal(t, deadline, a.Deadline)

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, *a, list[0])
}

func TestCreateTrimsTitle(t *testing.T) {
	m := NewManager()

	a, err := m.Create("  essay draft  ", "", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "essay draft", a.Title)
}

func TestCreateEmptyTitle(t *testing.T) {
	m := NewManager()

	_, err := m.Create("   ", "Math", "", time.Now())
	assert.ErrorIs(t, err, ErrTitleRequired)
	assert.Empty(t, m.List())
}

func TestCreateAcceptsPastDeadline(t *testing.T) {
	m := NewManager()

	_, err := m.Create("overdue", "", "", time.Now().Add(-48*time.Hour))
	assert.NoError(t, err)
}

func TestIDsIncrement(t *testing.T) {
	m := NewManager()

	a1, err := m.Create("first", "", "", time.Now())
	require.NoError(t, err)
	a2, err := m.Create("second", "", "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, a1.ID+1, a2.ID)
}

func TestDueWithin(t *testing.T) {
	m := NewManager()

	_, err := m.Create("soon", "", "", time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	_, err = m.Create("far", "", "", time.Now().Add(72*time.Hour))
	require.NoError(t, err)
	_, err = m.Create("past", "", "", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	due := m.DueWithin(24 * time.Hour)
	require.Len(t, due, 1)
	assert.Equal(t, "soon", due[0].Title)
}
