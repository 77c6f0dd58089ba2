package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"groupchat/internal/domain"
)

// MemoryStore keeps users, groups and messages in process memory. It
// satisfies all three repository interfaces and assigns ids the way a serial
// column would.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[int]domain.User
	groups   map[int]domain.Group
	members  map[int]map[int]time.Time // group id -> user id -> joined at
	messages []domain.Message          // in id order

	nextUserID    int
	nextGroupID   int
	nextMessageID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int]domain.User),
		groups:  make(map[int]domain.Group),
		members: make(map[int]map[int]time.Time),
	}
}

func (s *MemoryStore) Save(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if u.Username == user.Username {
			u.Email = user.Email
			s.users[id] = u
			user.ID = u.ID
			user.CreatedAt = u.CreatedAt
			return nil
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

func (s *MemoryStore) FindAll(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *MemoryStore) SaveGroup(_ context.Context, group *domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGroupID++
	group.ID = s.nextGroupID
	s.groups[group.ID] = *group
	s.members[group.ID] = make(map[int]time.Time)
	return nil
}

func (s *MemoryStore) FindGroupByID(_ context.Context, id int) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %d: %w", id, domain.ErrNotFound)
	}
	return &g, nil
}

func (s *MemoryStore) GroupExists(_ context.Context, id int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.groups[id]
	return ok, nil
}

func (s *MemoryStore) UpdateGroup(_ context.Context, group *domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[group.ID]
	if !ok {
		return fmt.Errorf("group %d: %w", group.ID, domain.ErrNotFound)
	}
	g.Name = group.Name
	s.groups[group.ID] = g
	return nil
}

func (s *MemoryStore) DeleteGroup(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return fmt.Errorf("group %d: %w", id, domain.ErrNotFound)
	}
	delete(s.groups, id)
	delete(s.members, id)

	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.GroupID != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

func (s *MemoryStore) AddMember(_ context.Context, member *domain.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.members[member.GroupID]
	if !ok {
		return fmt.Errorf("group %d: %w", member.GroupID, domain.ErrNotFound)
	}
	if _, ok := s.users[member.UserID]; !ok {
		return fmt.Errorf("user %d: %w", member.UserID, domain.ErrNotFound)
	}
	if _, exists := users[member.UserID]; !exists {
		users[member.UserID] = member.JoinedAt
	}
	return nil
}

func (s *MemoryStore) RemoveMember(_ context.Context, groupID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.members[groupID]
	if _, ok := users[userID]; !ok {
		return fmt.Errorf("member %d of group %d: %w", userID, groupID, domain.ErrNotFound)
	}
	delete(users, userID)
	return nil
}

func (s *MemoryStore) GetGroupMembers(_ context.Context, groupID int) ([]domain.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []domain.GroupMember
	for userID, joined := range s.members[groupID] {
		members = append(members, domain.GroupMember{GroupID: groupID, UserID: userID, JoinedAt: joined})
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].UserID < members[j].UserID
	})
	return members, nil
}

func (s *MemoryStore) GetUserGroups(_ context.Context, userID int) ([]domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []domain.Group
	for groupID, users := range s.members {
		if _, ok := users[userID]; ok {
			groups = append(groups, s.groups[groupID])
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].ID < groups[j].ID
	})
	return groups, nil
}

func (s *MemoryStore) SaveMessage(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[msg.GroupID]; !ok {
		return fmt.Errorf("group %d: %w", msg.GroupID, domain.ErrNotFound)
	}
	s.nextMessageID++
	msg.ID = s.nextMessageID
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *MemoryStore) FindMessagesByGroup(_ context.Context, q domain.MessageQuery) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Message{}
	for _, m := range s.messages {
		if m.GroupID != q.GroupID {
			continue
		}
		if q.OlderThan > 0 && m.ID >= q.OlderThan {
			continue
		}
		if q.NewerThan > 0 && m.ID <= q.NewerThan {
			continue
		}
		out = append(out, m)
	}
	if !q.Ascending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) MessageInGroup(_ context.Context, groupID, messageID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.messages {
		if m.ID == messageID {
			return m.GroupID == groupID, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) FindMessagesByUser(_ context.Context, userID int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Message{}
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].UserID == userID {
			out = append(out, s.messages[i])
		}
	}
	return out, nil
}
