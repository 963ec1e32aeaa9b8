package openfga

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RelationAdmin is the relation that grants access to the back-office.
const RelationAdmin = "admin"

// Relations is the subset of the client the authorizer needs.
type Relations interface {
	Check(ctx context.Context, user, relation, object string) (bool, error)
	Write(ctx context.Context, user, relation, object string) error
}

// AdminAuthorizer answers "is this account an organiser of the event" with the
// tuple user:<id> admin <object>.
type AdminAuthorizer struct {
	relations Relations
	object    string
}

func NewAdminAuthorizer(relations Relations, object string) *AdminAuthorizer {
	return &AdminAuthorizer{relations: relations, object: object}
}

func (a *AdminAuthorizer) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return a.relations.Check(ctx, userRef(userID), RelationAdmin, a.object)
}

func (a *AdminAuthorizer) GrantAdmin(ctx context.Context, userID uuid.UUID) error {
	return a.relations.Write(ctx, userRef(userID), RelationAdmin, a.object)
}

func userRef(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID.String())
}
