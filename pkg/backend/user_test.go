package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/realtime"
)

func TestCreateUserLinksCommittee(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	f := setup(t)

	events, err := f.be.Broker().Subscribe(ctx, realtime.TablePrivilegedUsers, realtime.Any)
	is.NoErr(err)

	c, err := f.be.CreateCommittee(ctx, proto.CommitteeOptions{Name: "WHO"})
	is.NoErr(err)

	u, err := f.be.CreateUser(ctx, "chair@example.com", "hunter22", proto.UserOptions{
		Role:        role(access.RoleChair),
		FullName:    str("Ada Chair"),
		CommitteeID: str(c.ID),
	})
	is.NoErr(err)
	is.Equal(u.CommitteeID, c.ID)
	is.Equal(u.CommitteeRole, access.RoleChair)
	is.True(u.IsActive)

	c, err = f.be.Committee(ctx, c.ID)
	is.NoErr(err)
	is.Equal(c.Chair, "Ada Chair")

	e := <-events
	is.Equal(e.Type, realtime.Insert)
	is.Equal(e.ID, u.ID)

	// The new identity can sign in.
	_, _, err = f.be.Identity().SignIn(ctx, "chair@example.com", "hunter22", f.now)
	is.NoErr(err)

	// Switching to co-chair moves the display name.
	u, err = f.be.EditUser(ctx, u.ID, proto.UserOptions{CommitteeRole: role(access.RoleCoChair)})
	is.NoErr(err)
	c, err = f.be.Committee(ctx, c.ID)
	is.NoErr(err)
	is.Equal(c.Chair, "")
	is.Equal(c.CoChair, "Ada Chair")

	// Unlinking clears it.
	_, err = f.be.EditUser(ctx, u.ID, proto.UserOptions{CommitteeID: str("")})
	is.NoErr(err)
	c, err = f.be.Committee(ctx, c.ID)
	is.NoErr(err)
	is.Equal(c.CoChair, "")
}

func TestCreateUserRollsBack(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	f := setup(t)

	_, err := f.be.CreateUser(ctx, "chair@example.com", "hunter22", proto.UserOptions{
		Role:        role(access.RoleChair),
		CommitteeID: str("missing"),
	})
	is.Equal(err, proto.ErrCommitteeNotFound)

	// The identity was not created either.
	_, err = f.be.Identity().IdentityByEmail(ctx, "chair@example.com")
	is.Equal(err, proto.ErrIdentityNotFound)
}

func TestUserValidation(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	f := setup(t)
	f.signIn(t, "x@example.com")

	_, err := f.be.PromoteUser(ctx, "x@example.com", proto.UserOptions{})
	is.True(errors.Is(err, proto.ErrInvalidInput))
	_, err = f.be.PromoteUser(ctx, "x@example.com", proto.UserOptions{Role: role(access.RoleDirector), CommitteeRole: role(access.RoleChair)})
	is.True(errors.Is(err, proto.ErrInvalidInput))
	_, err = f.be.PromoteUser(ctx, "nobody@example.com", proto.UserOptions{Role: role(access.RoleChair)})
	is.Equal(err, proto.ErrIdentityNotFound)

	_, err = f.be.PromoteUser(ctx, "x@example.com", proto.UserOptions{Role: role(access.RoleDirector)})
	is.NoErr(err)
	_, err = f.be.PromoteUser(ctx, "x@example.com", proto.UserOptions{Role: role(access.RoleDirector)})
	is.Equal(err, proto.ErrEmailTaken)
}

func TestDeleteUser(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	f := setup(t)
	cred := f.signIn(t, "chair@example.com")
	u, err := f.be.PromoteUser(ctx, "chair@example.com", proto.UserOptions{Role: role(access.RoleChair)})
	is.NoErr(err)

	res, err := f.be.ResolveAccess(ctx, cred, f.now)
	is.NoErr(err)
	is.Equal(res.Level, access.ChairEquivalent)

	is.NoErr(f.be.DeleteUser(ctx, u.ID))
	is.Equal(f.be.DeleteUser(ctx, u.ID), proto.ErrUserNotFound)

	res, err = f.be.ResolveAccess(ctx, cred, f.now)
	is.NoErr(err)
	is.Equal(res.Level, access.AuthenticatedOnly)

	users, err := f.be.Users(ctx)
	is.NoErr(err)
	is.Equal(len(users), 0)
}

func TestRoleChangeMovesCommitteeRole(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	f := setup(t)
	f.signIn(t, "chair@example.com")

	c, err := f.be.CreateCommittee(ctx, proto.CommitteeOptions{Name: "UNEP"})
	is.NoErr(err)
	u, err := f.be.PromoteUser(ctx, "chair@example.com", proto.UserOptions{
		Role:        role(access.RoleChair),
		FullName:    str("Ada Chair"),
		CommitteeID: str(c.ID),
	})
	is.NoErr(err)
	is.Equal(u.CommitteeRole, access.RoleChair)

	u, err = f.be.EditUser(ctx, u.ID, proto.UserOptions{Role: role(access.RoleCoChair)})
	is.NoErr(err)
	is.Equal(u.Role, access.RoleCoChair)
	is.Equal(u.CommitteeRole, access.RoleCoChair)
	c, err = f.be.Committee(ctx, c.ID)
	is.NoErr(err)
	is.Equal(c.Chair, "")
	is.Equal(c.CoChair, "Ada Chair")

	// An explicit committee role wins over the role.
	u, err = f.be.EditUser(ctx, u.ID, proto.UserOptions{
		Role:          role(access.RoleChair),
		CommitteeRole: role(access.RoleCoChair),
	})
	is.NoErr(err)
	is.Equal(u.Role, access.RoleChair)
	is.Equal(u.CommitteeRole, access.RoleCoChair)
}
