package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"groupchat/internal/domain"
	"groupchat/internal/metrics"
	"groupchat/internal/pagination"
)

type GroupInvalidator interface {
	Invalidate(ctx context.Context, id int)
}

// MembershipListener is told when a user stops receiving a group's messages.
type MembershipListener interface {
	Leave(ctx context.Context, groupID, userID int)
	CloseGroup(ctx context.Context, groupID int)
}

type ChatUsecase struct {
	userRepo    domain.UserRepository
	messageRepo domain.MessageRepository
	groupRepo   domain.GroupRepository
	paginator   *pagination.Paginator
	notifiers   []domain.MessageNotifier
	invalidator GroupInvalidator
	listeners   []MembershipListener
	metrics     *metrics.Metrics
	log         *zap.Logger
	now         func() time.Time
}

type Option func(*ChatUsecase)

func WithNotifier(n domain.MessageNotifier) Option {
	return func(u *ChatUsecase) { u.notifiers = append(u.notifiers, n) }
}

func WithGroupInvalidator(inv GroupInvalidator) Option {
	return func(u *ChatUsecase) { u.invalidator = inv }
}

func WithMembershipListener(l MembershipListener) Option {
	return func(u *ChatUsecase) { u.listeners = append(u.listeners, l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(u *ChatUsecase) { u.metrics = m }
}

func NewChatUsecase(
	userRepo domain.UserRepository,
	messageRepo domain.MessageRepository,
	groupRepo domain.GroupRepository,
	paginator *pagination.Paginator,
	log *zap.Logger,
	opts ...Option,
) *ChatUsecase {
	u := &ChatUsecase{
		userRepo:    userRepo,
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		paginator:   paginator,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// User registration and management
func (u *ChatUsecase) RegisterUser(ctx context.Context, username, email string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrBadRequest)
	}

	user := &domain.User{
		Username:  username,
		Email:     strings.TrimSpace(email),
		CreatedAt: u.now(),
	}
	if err := u.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *ChatUsecase) GetUser(ctx context.Context, id int) (*domain.User, error) {
	return u.userRepo.FindByID(ctx, id)
}

func (u *ChatUsecase) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return u.userRepo.FindByUsername(ctx, username)
}

func (u *ChatUsecase) ListUsers(ctx context.Context) ([]domain.User, error) {
	return u.userRepo.FindAll(ctx)
}

// Group management
func (u *ChatUsecase) CreateGroup(ctx context.Context, name string, creatorID int, memberIDs []int) (*domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", domain.ErrBadRequest)
	}

	ids := append([]int{creatorID}, memberIDs...)
	for _, id := range ids {
		if _, err := u.userRepo.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}

	group := &domain.Group{Name: name, CreatedAt: u.now()}
	if err := u.groupRepo.SaveGroup(ctx, group); err != nil {
		return nil, err
	}
	u.invalidate(ctx, group.ID)

	// The creator is always a member. A failed insert removes the group again.
	for _, id := range ids {
		member := &domain.GroupMember{GroupID: group.ID, UserID: id, JoinedAt: u.now()}
		if err := u.groupRepo.AddMember(ctx, member); err != nil {
			if derr := u.groupRepo.DeleteGroup(ctx, group.ID); derr != nil {
				u.log.Error("rollback group create", zap.Int("group_id", group.ID), zap.Error(derr))
			}
			u.invalidate(ctx, group.ID)
			return nil, fmt.Errorf("add member %d to group %d: %w", id, group.ID, err)
		}
	}

	u.log.Info("group created", zap.Int("group_id", group.ID), zap.String("name", name), zap.Int("creator_id", creatorID))
	return group, nil
}

func (u *ChatUsecase) GetGroup(ctx context.Context, id int) (*domain.Group, error) {
	return u.groupRepo.FindGroupByID(ctx, id)
}

// UpdateGroup renames the group. Only members may rename.
func (u *ChatUsecase) UpdateGroup(ctx context.Context, id, userID int, name string) (*domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", domain.ErrBadRequest)
	}
	if err := u.requireMember(ctx, id, userID); err != nil {
		return nil, err
	}
	if err := u.groupRepo.UpdateGroup(ctx, &domain.Group{ID: id, Name: name}); err != nil {
		return nil, err
	}
	return u.groupRepo.FindGroupByID(ctx, id)
}

// DeleteGroup removes the group with its messages. Only members may delete.
func (u *ChatUsecase) DeleteGroup(ctx context.Context, id, userID int) error {
	if err := u.requireMember(ctx, id, userID); err != nil {
		return err
	}
	if err := u.groupRepo.DeleteGroup(ctx, id); err != nil {
		return err
	}
	u.invalidate(ctx, id)
	u.closeGroup(ctx, id)
	u.log.Info("group deleted", zap.Int("group_id", id), zap.Int("user_id", userID))
	return nil
}

// LeaveGroup removes userID from the group and deletes the group once its
// last member has left.
func (u *ChatUsecase) LeaveGroup(ctx context.Context, id, userID int) (*domain.Group, error) {
	group, err := u.groupRepo.FindGroupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.groupRepo.RemoveMember(ctx, id, userID); err != nil {
		return nil, err
	}
	for _, l := range u.listeners {
		l.Leave(ctx, id, userID)
	}

	members, err := u.groupRepo.GetGroupMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		if err := u.groupRepo.DeleteGroup(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		u.invalidate(ctx, id)
		u.closeGroup(ctx, id)
		u.log.Info("last member left, group deleted", zap.Int("group_id", id))
	}
	return group, nil
}

func (u *ChatUsecase) GroupMembers(ctx context.Context, groupID int) ([]domain.User, error) {
	members, err := u.groupRepo.GetGroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(members))
	for _, m := range members {
		user, err := u.userRepo.FindByID(ctx, m.UserID)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

func (u *ChatUsecase) UserGroups(ctx context.Context, userID int) ([]domain.Group, error) {
	return u.groupRepo.GetUserGroups(ctx, userID)
}

func (u *ChatUsecase) IsMember(ctx context.Context, groupID, userID int) (bool, error) {
	members, err := u.groupRepo.GetGroupMembers(ctx, groupID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (u *ChatUsecase) requireMember(ctx context.Context, groupID, userID int) error {
	if _, err := u.groupRepo.FindGroupByID(ctx, groupID); err != nil {
		return err
	}
	ok, err := u.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %d is not a member of group %d", domain.ErrForbidden, userID, groupID)
	}
	return nil
}

// Message handling
func (u *ChatUsecase) CreateMessage(ctx context.Context, userID, groupID int, text string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text is required", domain.ErrBadRequest)
	}
	if err := u.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		GroupID:   groupID,
		UserID:    userID,
		Text:      text,
		CreatedAt: u.now(),
	}
	if err := u.messageRepo.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}
	if u.metrics != nil {
		u.metrics.MessagesCreated.Inc()
	}

	for _, n := range u.notifiers {
		if err := n.MessageCreated(ctx, *msg); err != nil {
			u.log.Warn("message notification failed",
				zap.Int("message_id", msg.ID),
				zap.Int("group_id", groupID),
				zap.Error(err),
			)
		}
	}
	return msg, nil
}

// GroupMessages pages through a group's messages, newest first. A nil
// connection uses the paginator's configured default.
func (u *ChatUsecase) GroupMessages(ctx context.Context, groupID int, conn *pagination.ConnectionInput) (*pagination.Connection, error) {
	page, err := u.paginator.Paginate(ctx, groupID, conn)
	if err != nil {
		return nil, err
	}
	if u.metrics != nil {
		u.metrics.PageSize.Observe(float64(len(page.Edges)))
	}
	return page, nil
}

// Messages lists messages newest first, filtered by group, sender, or both.
func (u *ChatUsecase) Messages(ctx context.Context, groupID, userID int) ([]domain.Message, error) {
	switch {
	case groupID > 0:
		msgs, err := u.messageRepo.FindMessagesByGroup(ctx, domain.MessageQuery{GroupID: groupID})
		if err != nil {
			return nil, err
		}
		if userID <= 0 {
			return msgs, nil
		}
		filtered := msgs[:0]
		for _, m := range msgs {
			if m.UserID == userID {
				filtered = append(filtered, m)
			}
		}
		return filtered, nil
	case userID > 0:
		return u.messageRepo.FindMessagesByUser(ctx, userID)
	default:
		return nil, fmt.Errorf("%w: groupId or userId is required", domain.ErrBadRequest)
	}
}

func (u *ChatUsecase) invalidate(ctx context.Context, groupID int) {
	if u.invalidator != nil {
		u.invalidator.Invalidate(ctx, groupID)
	}
}

func (u *ChatUsecase) closeGroup(ctx context.Context, groupID int) {
	for _, l := range u.listeners {
		l.CloseGroup(ctx, groupID)
	}
}
