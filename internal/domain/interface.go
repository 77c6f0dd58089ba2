package domain

import "context"

type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *Message) error
	FindMessagesByGroup(ctx context.Context, q MessageQuery) ([]Message, error)
	MessageInGroup(ctx context.Context, groupID, messageID int) (bool, error)
	FindMessagesByUser(ctx context.Context, userID int) ([]Message, error)
}

type GroupRepository interface {
	SaveGroup(ctx context.Context, group *Group) error
	FindGroupByID(ctx context.Context, id int) (*Group, error)
	GroupExists(ctx context.Context, id int) (bool, error)
	UpdateGroup(ctx context.Context, group *Group) error
	DeleteGroup(ctx context.Context, id int) error
	AddMember(ctx context.Context, member *GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID int) error
	GetGroupMembers(ctx context.Context, groupID int) ([]GroupMember, error)
	GetUserGroups(ctx context.Context, userID int) ([]Group, error)
}

// MessageNotifier is told about every message after it has been stored.
type MessageNotifier interface {
	MessageCreated(ctx context.Context, msg Message) error
}
