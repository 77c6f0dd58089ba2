package pagination

import (
	"context"
	"fmt"

	"groupchat/internal/domain"
)

// Store is the read side the paginator delegates filtering and limiting to.
type Store interface {
	GroupExists(ctx context.Context, groupID int) (bool, error)
	MessageInGroup(ctx context.Context, groupID, messageID int) (bool, error)
	FindMessagesByGroup(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error)
}

type Paginator struct {
	store       Store
	defaults    ConnectionInput
	maxPageSize int
}

type Option func(*Paginator)

// WithDefaults sets the input used when a caller passes no connection at all.
func WithDefaults(in ConnectionInput) Option {
	return func(p *Paginator) { p.defaults = in }
}

// WithMaxPageSize rejects first/last above n. Zero disables the check.
func WithMaxPageSize(n int) Option {
	return func(p *Paginator) { p.maxPageSize = n }
}

func NewPaginator(store Store, opts ...Option) *Paginator {
	p := &Paginator{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Paginate returns a page of the group's messages, newest first.
//
// after/before bound the window exclusively, first keeps the leading
// elements and last keeps the trailing elements of whatever first left.
// A well-formed cursor whose message is not part of the group yields an
// empty page.
func (p *Paginator) Paginate(ctx context.Context, groupID int, in *ConnectionInput) (*Connection, error) {
	if in == nil {
		d := p.defaults
		in = &d
	}
	if err := p.validate(in); err != nil {
		return nil, err
	}

	exists, err := p.store.GroupExists(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("check group %d: %w", groupID, err)
	}
	if !exists {
		return nil, fmt.Errorf("group %d: %w", groupID, domain.ErrNotFound)
	}

	afterID, ok, err := p.resolveBound(ctx, groupID, in.After)
	if err != nil || !ok {
		return emptyOrErr(err)
	}
	beforeID, ok, err := p.resolveBound(ctx, groupID, in.Before)
	if err != nil || !ok {
		return emptyOrErr(err)
	}

	q := domain.MessageQuery{GroupID: groupID, OlderThan: afterID, NewerThan: beforeID}
	var page []domain.Message

	switch {
	case in.First != nil:
		if *in.First == 0 {
			return emptyConnection(), nil
		}
		q.Limit = *in.First
		if page, err = p.find(ctx, q); err != nil {
			return nil, err
		}
		if in.Last != nil {
			page = tail(page, *in.Last)
		}
	case in.Last != nil:
		if *in.Last == 0 {
			return emptyConnection(), nil
		}
		// The trailing elements of a newest-first window are its oldest ones.
		q.Limit = *in.Last
		q.Ascending = true
		if page, err = p.find(ctx, q); err != nil {
			return nil, err
		}
		reverse(page)
	default:
		if page, err = p.find(ctx, q); err != nil {
			return nil, err
		}
	}

	if len(page) == 0 {
		return emptyConnection(), nil
	}

	hasNext, err := p.probe(ctx, domain.MessageQuery{GroupID: groupID, OlderThan: page[len(page)-1].ID, Limit: 1})
	if err != nil {
		return nil, err
	}
	hasPrev, err := p.probe(ctx, domain.MessageQuery{GroupID: groupID, NewerThan: page[0].ID, Limit: 1})
	if err != nil {
		return nil, err
	}
	return newConnection(page, hasNext, hasPrev), nil
}

func (p *Paginator) validate(in *ConnectionInput) error {
	for _, arg := range []struct {
		name string
		v    *int
	}{{"first", in.First}, {"last", in.Last}} {
		if arg.v == nil {
			continue
		}
		if *arg.v < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %d", domain.ErrInvalidRange, arg.name, *arg.v)
		}
		if p.maxPageSize > 0 && *arg.v > p.maxPageSize {
			return fmt.Errorf("%w: %s cannot exceed %d, got %d", domain.ErrInvalidRange, arg.name, p.maxPageSize, *arg.v)
		}
	}
	return nil
}

// resolveBound decodes cursor and checks the message still belongs to the
// group. ok is false when the referenced message is unknown.
func (p *Paginator) resolveBound(ctx context.Context, groupID int, cursor *string) (id int, ok bool, err error) {
	if cursor == nil {
		return 0, true, nil
	}
	id, err = DecodeCursor(*cursor)
	if err != nil {
		return 0, false, err
	}
	ok, err = p.store.MessageInGroup(ctx, groupID, id)
	if err != nil {
		return 0, false, fmt.Errorf("resolve cursor in group %d: %w", groupID, err)
	}
	return id, ok, nil
}

func (p *Paginator) find(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error) {
	msgs, err := p.store.FindMessagesByGroup(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find messages in group %d: %w", q.GroupID, err)
	}
	return msgs, nil
}

func (p *Paginator) probe(ctx context.Context, q domain.MessageQuery) (bool, error) {
	msgs, err := p.find(ctx, q)
	if err != nil {
		return false, err
	}
	return len(msgs) > 0, nil
}

func emptyOrErr(err error) (*Connection, error) {
	if err != nil {
		return nil, err
	}
	return emptyConnection(), nil
}

func tail(msgs []domain.Message, n int) []domain.Message {
	if n >= len(msgs) {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

func reverse(msgs []domain.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
