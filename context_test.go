package authcore_test

import (
	"context"
	"testing"

	authcore "github.com/chimerakang/authcore-go"
)

func TestContextRoundTrip(t *testing.T) {
	user := &authcore.UserSnapshot{OpenID: "openid-1", Permission: authcore.Provider}

	ctx := authcore.WithSubject(context.Background(), "openid-1")
	ctx = authcore.WithUser(ctx, user)

	if got := authcore.SubjectFromContext(ctx); got != "openid-1" {
		t.Errorf("SubjectFromContext() = %q, want %q", got, "openid-1")
	}
	got := authcore.UserFromContext(ctx)
	if got == nil {
		t.Fatal("UserFromContext() = nil, want snapshot")
	}
	if got.Permission != authcore.Provider {
		t.Errorf("user permission = %v, want Provider", got.Permission)
	}
}

func TestContextEmpty(t *testing.T) {
	ctx := context.Background()
	if got := authcore.SubjectFromContext(ctx); got != "" {
		t.Errorf("SubjectFromContext(empty) = %q, want empty", got)
	}
	if got := authcore.UserFromContext(ctx); got != nil {
		t.Errorf("UserFromContext(empty) = %v, want nil", got)
	}
}
