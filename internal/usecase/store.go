package usecase

import (
	"context"

	"groupchat/internal/domain"
)

type GroupExister interface {
	GroupExists(ctx context.Context, id int) (bool, error)
}

// PaginationStore joins a group existence check (possibly cached) with the
// message repository so it can back a pagination.Paginator.
type PaginationStore struct {
	GroupExister
	domain.MessageRepository
}

func NewPaginationStore(groups GroupExister, messages domain.MessageRepository) *PaginationStore {
	return &PaginationStore{GroupExister: groups, MessageRepository: messages}
}
