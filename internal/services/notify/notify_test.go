// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package notify_test

import (
	"context"
	"errors"
	"testing"

	"codeberg.org/oliverandrich/portfolio-gate/internal/services/notify"
	"github.com/stretchr/testify/assert"
)

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) NotifyOwner(context.Context, string, string) error {
	f.calls++
	return f.err
}

func TestNew_Empty(t *testing.T) {
	assert.Nil(t, notify.New())
	assert.Nil(t, notify.New(nil, nil))
}

func TestChain_StopsAtFirstSuccess(t *testing.T) {
	first := &fakeNotifier{}
	second := &fakeNotifier{}

	err := notify.New(first, second).NotifyOwner(context.Background(), "s", "b")

	assert.NoError(t, err)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsBack(t *testing.T) {
	first := &fakeNotifier{err: errors.New("smtp down")}
	second := &fakeNotifier{}

	err := notify.New(first, second).NotifyOwner(context.Background(), "s", "b")

	assert.NoError(t, err)
	assert.Equal(t, 1, second.calls)
}

func TestChain_AllFail(t *testing.T) {
	err := notify.New(
		&fakeNotifier{err: errors.New("smtp down")},
		&fakeNotifier{err: errors.New("relay down")},
	).NotifyOwner(context.Background(), "s", "b")

	assert.ErrorContains(t, err, "smtp down")
	assert.ErrorContains(t, err, "relay down")
}

func TestChain_Empty(t *testing.T) {
	err := notify.Chain{}.NotifyOwner(context.Background(), "s", "b")

	assert.ErrorIs(t, err, notify.ErrUnconfigured)
}
