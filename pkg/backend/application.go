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

// Payment statuses.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

func applicationFromModel(m models.Application) *proto.Application {
	return &proto.Application{
		ID:                  m.ID,
		Email:               m.Email,
		FullName:            m.FullName,
		Institution:         m.Institution,
		CommitteePreference: m.CommitteePreference,
		Status:              m.Status,
		AssignedCommitteeID: m.AssignedCommitteeID.String,
		PaymentStatus:       m.PaymentStatus,
		PaymentReference:    m.PaymentReference,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func applicationsFromModels(ms []models.Application) []*proto.Application {
	apps := make([]*proto.Application, 0, len(ms))
	for _, m := range ms {
		apps = append(apps, applicationFromModel(m))
	}

	return apps
}

// Applications returns all applications.
func (d *Backend) Applications(ctx context.Context) ([]*proto.Application, error) {
	ms, err := d.store.GetAllApplications(ctx, d.db)
	if err != nil {
		return nil, err
	}

	return applicationsFromModels(ms), nil
}

// ApplicationsByCommittee returns the applications assigned to committee id.
func (d *Backend) ApplicationsByCommittee(ctx context.Context, id string) ([]*proto.Application, error) {
	ms, err := d.store.GetApplicationsByCommitteeID(ctx, d.db, id)
	if err != nil {
		return nil, err
	}

	return applicationsFromModels(ms), nil
}

// Application returns the application with id.
func (d *Backend) Application(ctx context.Context, id string) (*proto.Application, error) {
	m, err := d.store.GetApplicationByID(ctx, d.db, id)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrApplicationNotFound
		}
		return nil, err
	}

	return applicationFromModel(m), nil
}

// ApplicationByEmail returns the application with the exact email.
func (d *Backend) ApplicationByEmail(ctx context.Context, email string) (*proto.Application, error) {
	m, err := d.store.FindApplicationByEmail(ctx, d.db, email)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrApplicationNotFound
		}
		return nil, err
	}

	return applicationFromModel(m), nil
}

// SubmitApplication files the application of email. Each email may apply
// once.
func (d *Backend) SubmitApplication(ctx context.Context, email string, opts proto.ApplicationOptions) (*proto.Application, error) {
	if strings.TrimSpace(opts.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", proto.ErrInvalidInput)
	}

	var m models.Application
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		id := uuid.NewString()
		if err := d.store.CreateApplication(ctx, tx, models.Application{
			ID:                  id,
			Email:               email,
			FullName:            strings.TrimSpace(opts.FullName),
			Institution:         strings.TrimSpace(opts.Institution),
			CommitteePreference: strings.TrimSpace(opts.CommitteePreference),
			Status:              proto.StatusPending,
			PaymentStatus:       PaymentUnpaid,
		}); err != nil {
			if errors.Is(err, db.ErrDuplicateKey) {
				return proto.ErrApplicationExist
			}
			return err
		}

		var err error
		m, err = d.store.GetApplicationByID(ctx, tx, id)
		return err
	}); err != nil {
		return nil, err
	}

	d.publish(ctx, realtime.TableApplications, realtime.Insert, m.ID)
	return applicationFromModel(m), nil
}

// SetApplicationStatus sets the status of an application. Statuses are an
// open set; only emptiness is rejected.
func (d *Backend) SetApplicationStatus(ctx context.Context, id string, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return fmt.Errorf("%w: status is required", proto.ErrInvalidInput)
	}

	if err := d.store.SetApplicationStatus(ctx, d.db, id, status); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.ErrApplicationNotFound
		}
		return err
	}

	d.publish(ctx, realtime.TableApplications, realtime.Update, id)
	return nil
}

// AssignCommittee assigns an application to a committee. An empty
// committeeID clears the assignment.
func (d *Backend) AssignCommittee(ctx context.Context, id string, committeeID string) error {
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		app, err := d.store.GetApplicationByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				return proto.ErrApplicationNotFound
			}
			return err
		}

		var target *string
		if committeeID != "" {
			if _, err := d.store.GetCommitteeByID(ctx, tx, committeeID); err != nil {
				if errors.Is(err, db.ErrRecordNotFound) {
					return proto.ErrCommitteeNotFound
				}
				return err
			}
			target = &committeeID
		}

		if err := d.store.SetApplicationCommittee(ctx, tx, id, target); err != nil {
			return err
		}

		if app.AssignedCommitteeID.Valid && app.AssignedCommitteeID.String != committeeID {
			if err := d.refreshSeats(ctx, tx, app.AssignedCommitteeID.String); err != nil {
				return err
			}
		}
		if committeeID != "" {
			return d.refreshSeats(ctx, tx, committeeID)
		}

		return nil
	}); err != nil {
		return err
	}

	d.publish(ctx, realtime.TableApplications, realtime.Update, id)
	return nil
}
