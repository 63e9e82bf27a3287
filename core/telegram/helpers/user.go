package helpers

import "context"

// CurrentUser resolves a Telegram chat ID to a domain entity via a store that
// implements UserByChatID. The generic type T allows different projects to
// supply their own user model.
func CurrentUser[T any](
	ctx context.Context,
	store interface {
		UserByChatID(context.Context, int64) (T, error)
	},
	chatID int64,
) (T, error) {
	var zero T
	if store == nil {
		return zero, nil
	}
	return store.UserByChatID(ctx, chatID)
}
