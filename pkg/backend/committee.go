package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/realtime"
)

func committeeFromModel(m models.Committee) *proto.Committee {
	return &proto.Committee{
		ID:           m.ID,
		Name:         m.Name,
		Abbreviation: m.Abbreviation,
		Chair:        m.Chair,
		CoChair:      m.CoChair,
		Capacity:     m.Capacity,
		SeatsFilled:  m.SeatsFilled,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// Committees returns all committees.
func (d *Backend) Committees(ctx context.Context) ([]*proto.Committee, error) {
	ms, err := d.store.GetAllCommittees(ctx, d.db)
	if err != nil {
		return nil, err
	}

	committees := make([]*proto.Committee, 0, len(ms))
	for _, m := range ms {
		committees = append(committees, committeeFromModel(m))
	}

	return committees, nil
}

// Committee returns the committee with id.
func (d *Backend) Committee(ctx context.Context, id string) (*proto.Committee, error) {
	m, err := d.store.GetCommitteeByID(ctx, d.db, id)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrCommitteeNotFound
		}
		return nil, err
	}

	return committeeFromModel(m), nil
}

func validateCommittee(opts proto.CommitteeOptions) error {
	if strings.TrimSpace(opts.Name) == "" {
		return fmt.Errorf("%w: committee name is required", proto.ErrInvalidInput)
	}
	if opts.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", proto.ErrInvalidInput)
	}

	return nil
}

// CreateCommittee creates a committee.
func (d *Backend) CreateCommittee(ctx context.Context, opts proto.CommitteeOptions) (*proto.Committee, error) {
	if err := validateCommittee(opts); err != nil {
		return nil, err
	}

	var m models.Committee
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		id := uuid.NewString()
		if err := d.store.CreateCommittee(ctx, tx, models.Committee{
			ID:           id,
			Name:         strings.TrimSpace(opts.Name),
			Abbreviation: strings.TrimSpace(opts.Abbreviation),
			Capacity:     opts.Capacity,
		}); err != nil {
			if errors.Is(err, db.ErrDuplicateKey) {
				return proto.ErrCommitteeExist
			}
			return err
		}

		var err error
		m, err = d.store.GetCommitteeByID(ctx, tx, id)
		return err
	}); err != nil {
		return nil, err
	}

	d.publish(ctx, realtime.TableCommittees, realtime.Insert, m.ID)
	return committeeFromModel(m), nil
}

// EditCommittee changes a committee's name, abbreviation, and capacity.
func (d *Backend) EditCommittee(ctx context.Context, id string, opts proto.CommitteeOptions) (*proto.Committee, error) {
	if err := validateCommittee(opts); err != nil {
		return nil, err
	}

	var m models.Committee
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = d.store.GetCommitteeByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				return proto.ErrCommitteeNotFound
			}
			return err
		}

		m.Name = strings.TrimSpace(opts.Name)
		m.Abbreviation = strings.TrimSpace(opts.Abbreviation)
		m.Capacity = opts.Capacity
		if err := d.store.UpdateCommittee(ctx, tx, m); err != nil {
			if errors.Is(err, db.ErrDuplicateKey) {
				return proto.ErrCommitteeExist
			}
			return err
		}

		m, err = d.store.GetCommitteeByID(ctx, tx, id)
		return err
	}); err != nil {
		return nil, err
	}

	d.publish(ctx, realtime.TableCommittees, realtime.Update, id)
	return committeeFromModel(m), nil
}

// DeleteCommittee deletes a committee. Users and applications linked to it
// are unlinked.
func (d *Backend) DeleteCommittee(ctx context.Context, id string) error {
	if err := d.store.DeleteCommitteeByID(ctx, d.db, id); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.ErrCommitteeNotFound
		}
		return err
	}

	// Cached privileged users may still point at the committee.
	d.cache.Purge()
	d.publish(ctx, realtime.TableCommittees, realtime.Delete, id)

	return nil
}

// refreshSeats recounts the applications assigned to committee id.
func (d *Backend) refreshSeats(ctx context.Context, tx *db.Tx, id string) error {
	apps, err := d.store.GetApplicationsByCommitteeID(ctx, tx, id)
	if err != nil {
		return err
	}

	m, err := d.store.GetCommitteeByID(ctx, tx, id)
	if err != nil {
		return err
	}

	m.SeatsFilled = len(apps)
	return d.store.UpdateCommittee(ctx, tx, m)
}
