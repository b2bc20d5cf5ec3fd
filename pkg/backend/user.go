package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/realtime"
)

func userFromModel(m models.PrivilegedUser) *proto.PrivilegedUser {
	return &proto.PrivilegedUser{
		ID:            m.ID,
		Email:         m.Email,
		Role:          access.Role(m.Role),
		FullName:      m.FullName,
		IsActive:      m.IsActive,
		CommitteeID:   m.CommitteeID.String,
		CommitteeRole: access.Role(m.CommitteeRole.String),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// Users returns all privileged users.
func (d *Backend) Users(ctx context.Context) ([]*proto.PrivilegedUser, error) {
	ms, err := d.store.GetAllPrivilegedUsers(ctx, d.db)
	if err != nil {
		return nil, err
	}

	users := make([]*proto.PrivilegedUser, 0, len(ms))
	for _, m := range ms {
		users = append(users, userFromModel(m))
	}

	return users, nil
}

// User returns the privileged user with id.
func (d *Backend) User(ctx context.Context, id string) (*proto.PrivilegedUser, error) {
	m, err := d.store.GetPrivilegedUserByID(ctx, d.db, id)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		return nil, err
	}

	return userFromModel(m), nil
}

// UserByEmail returns the privileged user with the exact email.
func (d *Backend) UserByEmail(ctx context.Context, email string) (*proto.PrivilegedUser, error) {
	m, err := d.store.FindPrivilegedUserByEmail(ctx, d.db, email)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		return nil, err
	}

	return userFromModel(m), nil
}

// CreateUser signs up a new identity and grants it a privileged role in one
// transaction.
func (d *Backend) CreateUser(ctx context.Context, email, password string, opts proto.UserOptions) (*proto.PrivilegedUser, error) {
	var m models.PrivilegedUser
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		ident, err := d.identity.CreateIdentity(ctx, tx, email, password, deref(opts.FullName))
		if err != nil {
			return err
		}

		m, err = d.insertUser(ctx, tx, ident.ID, ident.Email, opts)
		return err
	}); err != nil {
		return nil, err
	}

	d.cache.Delete(m.Email)
	d.publish(ctx, realtime.TablePrivilegedUsers, realtime.Insert, m.ID)
	d.logger.Info("created privileged user", "email", m.Email, "role", m.Role)

	return userFromModel(m), nil
}

// PromoteUser grants a privileged role to an existing identity.
func (d *Backend) PromoteUser(ctx context.Context, email string, opts proto.UserOptions) (*proto.PrivilegedUser, error) {
	ident, err := d.identity.IdentityByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if opts.FullName == nil && ident.DisplayName != "" {
		opts.FullName = &ident.DisplayName
	}

	var m models.PrivilegedUser
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		m, err = d.insertUser(ctx, tx, ident.ID, ident.Email, opts)
		return err
	}); err != nil {
		return nil, err
	}

	d.cache.Delete(m.Email)
	d.publish(ctx, realtime.TablePrivilegedUsers, realtime.Insert, m.ID)
	d.logger.Info("promoted identity", "email", m.Email, "role", m.Role)

	return userFromModel(m), nil
}

func (d *Backend) insertUser(ctx context.Context, tx *db.Tx, id, email string, opts proto.UserOptions) (models.PrivilegedUser, error) {
	if opts.Role == nil || strings.TrimSpace(string(*opts.Role)) == "" {
		return models.PrivilegedUser{}, fmt.Errorf("%w: role is required", proto.ErrInvalidInput)
	}

	m := models.PrivilegedUser{
		ID:       id,
		Email:    email,
		IsActive: true,
	}
	if err := applyUserOptions(&m, opts); err != nil {
		return models.PrivilegedUser{}, err
	}
	if err := d.checkCommittee(ctx, tx, m.CommitteeID); err != nil {
		return models.PrivilegedUser{}, err
	}

	if err := d.store.CreatePrivilegedUser(ctx, tx, m); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			return models.PrivilegedUser{}, proto.ErrEmailTaken
		}
		return models.PrivilegedUser{}, err
	}

	if err := d.linkCommittee(ctx, tx, models.PrivilegedUser{}, m); err != nil {
		return models.PrivilegedUser{}, err
	}

	return d.store.GetPrivilegedUserByID(ctx, tx, id)
}

// EditUser changes a privileged user. Deactivating a user takes effect on
// their next resolution.
func (d *Backend) EditUser(ctx context.Context, id string, opts proto.UserOptions) (*proto.PrivilegedUser, error) {
	var m models.PrivilegedUser
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		old, err := d.store.GetPrivilegedUserByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				return proto.ErrUserNotFound
			}
			return err
		}

		m = old
		if err := applyUserOptions(&m, opts); err != nil {
			return err
		}
		if err := d.checkCommittee(ctx, tx, m.CommitteeID); err != nil {
			return err
		}

		if err := d.store.UpdatePrivilegedUser(ctx, tx, m); err != nil {
			return err
		}

		if err := d.linkCommittee(ctx, tx, old, m); err != nil {
			return err
		}

		m, err = d.store.GetPrivilegedUserByID(ctx, tx, id)
		return err
	}); err != nil {
		return nil, err
	}

	d.cache.Delete(m.Email)
	d.publish(ctx, realtime.TablePrivilegedUsers, realtime.Update, m.ID)

	return userFromModel(m), nil
}

// DeleteUser removes a privileged user. The identity is kept.
func (d *Backend) DeleteUser(ctx context.Context, id string) error {
	var m models.PrivilegedUser
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = d.store.GetPrivilegedUserByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				return proto.ErrUserNotFound
			}
			return err
		}

		if err := d.linkCommittee(ctx, tx, m, models.PrivilegedUser{}); err != nil {
			return err
		}

		return d.store.DeletePrivilegedUserByID(ctx, tx, id)
	}); err != nil {
		return err
	}

	d.cache.Delete(m.Email)
	d.publish(ctx, realtime.TablePrivilegedUsers, realtime.Delete, id)

	return nil
}

func applyUserOptions(m *models.PrivilegedUser, opts proto.UserOptions) error {
	if opts.Role != nil {
		role := strings.TrimSpace(string(*opts.Role))
		if role == "" {
			return fmt.Errorf("%w: role is required", proto.ErrInvalidInput)
		}
		m.Role = role
	}
	if opts.FullName != nil {
		m.FullName = strings.TrimSpace(*opts.FullName)
	}
	if opts.IsActive != nil {
		m.IsActive = *opts.IsActive
	}
	if opts.CommitteeID != nil {
		m.CommitteeID = sql.NullString{String: *opts.CommitteeID, Valid: *opts.CommitteeID != ""}
		if !m.CommitteeID.Valid {
			m.CommitteeRole = sql.NullString{}
		}
	}
	if opts.CommitteeRole != nil {
		r := *opts.CommitteeRole
		if r != "" && !r.IsCommitteeRole() {
			return fmt.Errorf("%w: committee role must be %q or %q", proto.ErrInvalidInput, access.RoleChair, access.RoleCoChair)
		}
		m.CommitteeRole = sql.NullString{String: string(r), Valid: r != ""}
	}

	// Chairs and co-chairs lead the committee they are linked to. A role
	// change between them moves the committee role along unless one was
	// given explicitly.
	if m.CommitteeID.Valid && access.Role(m.Role).IsCommitteeRole() &&
		(!m.CommitteeRole.Valid || (opts.Role != nil && opts.CommitteeRole == nil)) {
		m.CommitteeRole = sql.NullString{String: m.Role, Valid: true}
	}
	if !m.CommitteeID.Valid && m.CommitteeRole.Valid {
		return fmt.Errorf("%w: committee role needs a committee", proto.ErrInvalidInput)
	}

	return nil
}

// linkCommittee keeps the committees' display names in step with the
// leadership links of a user going from old to cur.
func (d *Backend) linkCommittee(ctx context.Context, tx *db.Tx, old, cur models.PrivilegedUser) error {
	oldLead := old.CommitteeID.Valid && old.CommitteeRole.Valid
	curLead := cur.CommitteeID.Valid && cur.CommitteeRole.Valid
	if oldLead && (!curLead || old.CommitteeID != cur.CommitteeID || old.CommitteeRole != cur.CommitteeRole) {
		c, err := d.store.GetCommitteeByID(ctx, tx, old.CommitteeID.String)
		if err != nil && !errors.Is(err, db.ErrRecordNotFound) {
			return err
		}
		coChair := old.CommitteeRole.String == string(access.RoleCoChair)
		name := c.Chair
		if coChair {
			name = c.CoChair
		}
		if err == nil && name == old.FullName {
			if err := d.store.SetCommitteeLeader(ctx, tx, c.ID, coChair, ""); err != nil {
				return err
			}
		}
	}

	if curLead {
		coChair := cur.CommitteeRole.String == string(access.RoleCoChair)
		if err := d.store.SetCommitteeLeader(ctx, tx, cur.CommitteeID.String, coChair, cur.FullName); err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				return proto.ErrCommitteeNotFound
			}
			return err
		}
	}

	return nil
}

func (d *Backend) checkCommittee(ctx context.Context, tx *db.Tx, id sql.NullString) error {
	if !id.Valid {
		return nil
	}

	if _, err := d.store.GetCommitteeByID(ctx, tx, id.String); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.ErrCommitteeNotFound
		}
		return err
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
