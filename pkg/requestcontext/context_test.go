package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "profast/pkg/domain"
)

func TestSubject(t *testing.T) {
	ctx := context.Background()
	_, ok := Subject(ctx)
	assert.False(t, ok)
	assert.Empty(t, SubjectEmail(ctx))

	ctx = WithSubject(ctx, id.Subject{UID: "u1", Email: "alice@example.com"})
	s, ok := Subject(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", s.UID)
	assert.Equal(t, "alice@example.com", SubjectEmail(ctx))
}

func TestNowFallsBackToWallClock(t *testing.T) {
	before := time.Now()
	assert.False(t, Now(context.Background()).Before(before))

	fixed := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
}
