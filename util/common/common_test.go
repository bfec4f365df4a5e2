package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.NoError(t, Combine(nil, nil))

	e1 := errors.New("one")
	e2 := errors.New("two")
	err := Combine(e1, nil, e2)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
}

func TestRecover(t *testing.T) {
	assert.NotPanics(t, func() {
		defer Recover("test job")
		panic("boom")
	})
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(time.Time{}))
	ts := time.Date(2024, 3, 5, 14, 7, 0, 0, time.Local)
	assert.Equal(t, "Mar 5, 2024 14:07", FormatDate(ts))
}
