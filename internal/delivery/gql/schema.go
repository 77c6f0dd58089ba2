// Package gql exposes the chat use cases as a GraphQL schema.
package gql

import (
	"github.com/graphql-go/graphql"

	"groupchat/internal/usecase"
)

type types struct {
	user              *graphql.Object
	group             *graphql.Object
	message           *graphql.Object
	pageInfo          *graphql.Object
	messageEdge       *graphql.Object
	messageConnection *graphql.Object

	connectionInput    *graphql.InputObject
	createMessageInput *graphql.InputObject
	createGroupInput   *graphql.InputObject
	updateGroupInput   *graphql.InputObject
}

// NewSchema builds the schema over uc.
func NewSchema(uc *usecase.ChatUsecase) (graphql.Schema, error) {
	r := &resolver{uc: uc}
	t := buildTypes(r)

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"user": &graphql.Field{
				Type: t.user,
				Args: graphql.FieldConfigArgument{
					"id":       &graphql.ArgumentConfig{Type: graphql.Int},
					"username": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.user,
			},
			"users": &graphql.Field{
				Type:    graphql.NewList(graphql.NewNonNull(t.user)),
				Resolve: r.users,
			},
			"group": &graphql.Field{
				Type: t.group,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.group,
			},
			"messages": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(t.message)),
				Args: graphql.FieldConfigArgument{
					"groupId": &graphql.ArgumentConfig{Type: graphql.Int},
					"userId":  &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.messages,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createUser": &graphql.Field{
				Type: t.user,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.createUser,
			},
			"createMessage": &graphql.Field{
				Type: t.message,
				Args: graphql.FieldConfigArgument{
					"message": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.createMessageInput)},
				},
				Resolve: r.createMessage,
			},
			"createGroup": &graphql.Field{
				Type: t.group,
				Args: graphql.FieldConfigArgument{
					"group": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.createGroupInput)},
				},
				Resolve: r.createGroup,
			},
			"updateGroup": &graphql.Field{
				Type: t.group,
				Args: graphql.FieldConfigArgument{
					"group": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.updateGroupInput)},
				},
				Resolve: r.updateGroup,
			},
			"deleteGroup": &graphql.Field{
				Type: t.group,
				Args: graphql.FieldConfigArgument{
					"id":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"userId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.deleteGroup,
			},
			"leaveGroup": &graphql.Field{
				Type: t.group,
				Args: graphql.FieldConfigArgument{
					"id":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"userId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.leaveGroup,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func buildTypes(r *resolver) *types {
	t := &types{}

	t.connectionInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ConnectionInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"first":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"after":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"last":   &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"before": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	t.createMessageInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateMessageInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"groupId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"userId":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"text":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	t.createGroupInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateGroupInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"userId":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"userIds": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.Int))},
		},
	})
	t.updateGroupInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateGroupInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"userId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"name":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	t.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"username":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":     &graphql.Field{Type: graphql.String},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
		},
	})
	t.group = graphql.NewObject(graphql.ObjectConfig{
		Name: "Group",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
		},
	})
	t.message = graphql.NewObject(graphql.ObjectConfig{
		Name: "Message",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"text":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
		},
	})
	t.pageInfo = graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"startCursor":     &graphql.Field{Type: graphql.String, Resolve: optionalString("startCursor")},
			"endCursor":       &graphql.Field{Type: graphql.String, Resolve: optionalString("endCursor")},
		},
	})
	t.messageEdge = graphql.NewObject(graphql.ObjectConfig{
		Name: "MessageEdge",
		Fields: graphql.Fields{
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"node":   &graphql.Field{Type: graphql.NewNonNull(t.message)},
		},
	})
	t.messageConnection = graphql.NewObject(graphql.ObjectConfig{
		Name: "MessageConnection",
		Fields: graphql.Fields{
			"edges":    &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.messageEdge)))},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(t.pageInfo)},
		},
	})

	// User, Group and Message refer to each other.
	t.user.AddFieldConfig("groups", &graphql.Field{
		Type:    graphql.NewList(graphql.NewNonNull(t.group)),
		Resolve: r.userGroups,
	})
	t.user.AddFieldConfig("messages", &graphql.Field{
		Type:    graphql.NewList(graphql.NewNonNull(t.message)),
		Resolve: r.userMessages,
	})
	t.group.AddFieldConfig("users", &graphql.Field{
		Type:    graphql.NewList(graphql.NewNonNull(t.user)),
		Resolve: r.groupUsers,
	})
	t.group.AddFieldConfig("messages", &graphql.Field{
		Type: t.messageConnection,
		Args: graphql.FieldConfigArgument{
			"messageConnection": &graphql.ArgumentConfig{Type: t.connectionInput},
		},
		Resolve: r.groupMessages,
	})
	t.message.AddFieldConfig("from", &graphql.Field{
		Type:    t.user,
		Resolve: r.messageFrom,
	})
	t.message.AddFieldConfig("to", &graphql.Field{
		Type:    t.group,
		Resolve: r.messageTo,
	})

	return t
}
