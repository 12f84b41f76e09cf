package app

import "gopherblog/internal/model"

// CanModify is the ownership policy: only the user a post belongs to may
// change or delete it.
func CanModify(user *model.User, post *model.Post) bool {
	return user != nil && post != nil && post.UserID == user.ID
}
