package gql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"groupchat/internal/domain"
	"groupchat/internal/pagination"
	"groupchat/internal/usecase"
)

type resolver struct {
	uc *usecase.ChatUsecase
}

func (r *resolver) user(p graphql.ResolveParams) (interface{}, error) {
	if id, ok := argInt(p.Args["id"]); ok {
		u, err := r.uc.GetUser(p.Context, id)
		return u, translate(err)
	}
	if name, ok := p.Args["username"].(string); ok {
		u, err := r.uc.GetUserByUsername(p.Context, name)
		return u, translate(err)
	}
	return nil, translate(fmt.Errorf("%w: id or username is required", domain.ErrBadRequest))
}

func (r *resolver) users(p graphql.ResolveParams) (interface{}, error) {
	users, err := r.uc.ListUsers(p.Context)
	return users, translate(err)
}

func (r *resolver) group(p graphql.ResolveParams) (interface{}, error) {
	id, _ := argInt(p.Args["id"])
	g, err := r.uc.GetGroup(p.Context, id)
	return g, translate(err)
}

func (r *resolver) messages(p graphql.ResolveParams) (interface{}, error) {
	groupID, _ := argInt(p.Args["groupId"])
	userID, _ := argInt(p.Args["userId"])
	msgs, err := r.uc.Messages(p.Context, groupID, userID)
	return msgs, translate(err)
}

func (r *resolver) createUser(p graphql.ResolveParams) (interface{}, error) {
	username, _ := p.Args["username"].(string)
	email, _ := p.Args["email"].(string)
	u, err := r.uc.RegisterUser(p.Context, username, email)
	return u, translate(err)
}

func (r *resolver) createMessage(p graphql.ResolveParams) (interface{}, error) {
	in, _ := p.Args["message"].(map[string]interface{})
	groupID, _ := argInt(in["groupId"])
	userID, _ := argInt(in["userId"])
	text, _ := in["text"].(string)
	m, err := r.uc.CreateMessage(p.Context, userID, groupID, text)
	return m, translate(err)
}

func (r *resolver) createGroup(p graphql.ResolveParams) (interface{}, error) {
	in, _ := p.Args["group"].(map[string]interface{})
	name, _ := in["name"].(string)
	userID, _ := argInt(in["userId"])

	var memberIDs []int
	if list, ok := in["userIds"].([]interface{}); ok {
		for _, v := range list {
			if id, ok := argInt(v); ok {
				memberIDs = append(memberIDs, id)
			}
		}
	}
	g, err := r.uc.CreateGroup(p.Context, name, userID, memberIDs)
	return g, translate(err)
}

func (r *resolver) updateGroup(p graphql.ResolveParams) (interface{}, error) {
	in, _ := p.Args["group"].(map[string]interface{})
	id, _ := argInt(in["id"])
	userID, _ := argInt(in["userId"])
	name, _ := in["name"].(string)
	g, err := r.uc.UpdateGroup(p.Context, id, userID, name)
	return g, translate(err)
}

func (r *resolver) deleteGroup(p graphql.ResolveParams) (interface{}, error) {
	id, _ := argInt(p.Args["id"])
	userID, _ := argInt(p.Args["userId"])

	// Load first so the deleted group can be returned.
	g, err := r.uc.GetGroup(p.Context, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := r.uc.DeleteGroup(p.Context, id, userID); err != nil {
		return nil, translate(err)
	}
	return g, nil
}

func (r *resolver) leaveGroup(p graphql.ResolveParams) (interface{}, error) {
	id, _ := argInt(p.Args["id"])
	userID, _ := argInt(p.Args["userId"])
	g, err := r.uc.LeaveGroup(p.Context, id, userID)
	return g, translate(err)
}

func (r *resolver) userGroups(p graphql.ResolveParams) (interface{}, error) {
	u, ok := asUser(p.Source)
	if !ok {
		return nil, nil
	}
	groups, err := r.uc.UserGroups(p.Context, u.ID)
	return groups, translate(err)
}

func (r *resolver) userMessages(p graphql.ResolveParams) (interface{}, error) {
	u, ok := asUser(p.Source)
	if !ok {
		return nil, nil
	}
	msgs, err := r.uc.Messages(p.Context, 0, u.ID)
	return msgs, translate(err)
}

func (r *resolver) groupUsers(p graphql.ResolveParams) (interface{}, error) {
	g, ok := asGroup(p.Source)
	if !ok {
		return nil, nil
	}
	users, err := r.uc.GroupMembers(p.Context, g.ID)
	return users, translate(err)
}

func (r *resolver) groupMessages(p graphql.ResolveParams) (interface{}, error) {
	g, ok := asGroup(p.Source)
	if !ok {
		return nil, nil
	}
	conn, err := r.uc.GroupMessages(p.Context, g.ID, connectionInput(p.Args["messageConnection"]))
	if err != nil {
		return nil, translate(err)
	}
	return conn, nil
}

func (r *resolver) messageFrom(p graphql.ResolveParams) (interface{}, error) {
	m, ok := asMessage(p.Source)
	if !ok {
		return nil, nil
	}
	u, err := r.uc.GetUser(p.Context, m.UserID)
	return u, translate(err)
}

func (r *resolver) messageTo(p graphql.ResolveParams) (interface{}, error) {
	m, ok := asMessage(p.Source)
	if !ok {
		return nil, nil
	}
	g, err := r.uc.GetGroup(p.Context, m.GroupID)
	return g, translate(err)
}

// connectionInput maps the ConnectionInput argument onto the paginator's
// input. An absent or null argument yields nil so the configured default
// applies.
func connectionInput(v interface{}) *pagination.ConnectionInput {
	args, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	in := &pagination.ConnectionInput{}
	if n, ok := argInt(args["first"]); ok {
		in.First = &n
	}
	if n, ok := argInt(args["last"]); ok {
		in.Last = &n
	}
	if s, ok := args["after"].(string); ok {
		in.After = &s
	}
	if s, ok := args["before"].(string); ok {
		in.Before = &s
	}
	return in
}

func optionalString(field string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		var info pagination.PageInfo
		switch v := p.Source.(type) {
		case pagination.PageInfo:
			info = v
		case *pagination.PageInfo:
			info = *v
		default:
			return nil, nil
		}
		s := info.StartCursor
		if field == "endCursor" {
			s = info.EndCursor
		}
		if s == "" {
			return nil, nil
		}
		return s, nil
	}
}

func argInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asUser(src interface{}) (domain.User, bool) {
	switch v := src.(type) {
	case domain.User:
		return v, true
	case *domain.User:
		if v != nil {
			return *v, true
		}
	}
	return domain.User{}, false
}

func asGroup(src interface{}) (domain.Group, bool) {
	switch v := src.(type) {
	case domain.Group:
		return v, true
	case *domain.Group:
		if v != nil {
			return *v, true
		}
	}
	return domain.Group{}, false
}

func asMessage(src interface{}) (domain.Message, bool) {
	switch v := src.(type) {
	case domain.Message:
		return v, true
	case *domain.Message:
		if v != nil {
			return *v, true
		}
	}
	return domain.Message{}, false
}
