package authcore

import "context"

type ctxKey string

const (
	ctxKeySubject ctxKey = "authcore_subject"
	ctxKeyUser    ctxKey = "authcore_user"
)

// WithSubject stores the authenticated subject id in the context.
func WithSubject(ctx context.Context, openID string) context.Context {
	return context.WithValue(ctx, ctxKeySubject, openID)
}

// SubjectFromContext extracts the authenticated subject id from the context.
func SubjectFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeySubject).(string)
	return v
}

// WithUser stores the resolved user snapshot in the context.
func WithUser(ctx context.Context, user *UserSnapshot) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

// UserFromContext extracts the resolved user snapshot from the context.
func UserFromContext(ctx context.Context) *UserSnapshot {
	v, _ := ctx.Value(ctxKeyUser).(*UserSnapshot)
	return v
}
