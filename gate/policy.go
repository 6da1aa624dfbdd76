package gate

import "context"

// Policy defines authorization rules for a resource type.
// U is the subject type (e.g., a claims struct pointer).
type Policy[U any] interface {
	// Can returns true if user may perform action on resource.
	// For list/create checks, resource may be nil.
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// PolicyFunc adapts a plain function into a Policy.
type PolicyFunc[U any] func(ctx context.Context, user U, action Action, resource any) bool

func (f PolicyFunc[U]) Can(ctx context.Context, user U, action Action, resource any) bool {
	return f(ctx, user, action, resource)
}
