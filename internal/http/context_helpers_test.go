package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
)

func TestSessionFromContext(t *testing.T) {
	ctx := context.Background()
	_, ok := SessionFromContext(ctx)
	assert.False(t, ok)
	assert.Equal(t, ctx, SetSessionInContext(ctx, nil))

	sess := sessionFor(domainauth.RoleAdmin)
	got, ok := SessionFromContext(SetSessionInContext(ctx, sess))
	assert.True(t, ok)
	assert.Same(t, sess, got)
}

func TestIsGuestUser(t *testing.T) {
	ctx := context.Background()
	assert.True(t, IsGuestUser(ctx))
	assert.True(t, IsGuestUser(SetSessionInContext(ctx, sessionFor(domainauth.RoleGuest))))
	assert.False(t, IsGuestUser(SetSessionInContext(ctx, sessionFor(domainauth.RoleUser))))
}
