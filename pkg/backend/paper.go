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

func paperFromModel(m models.Paper) *proto.Paper {
	return &proto.Paper{
		ID:            m.ID,
		ApplicationID: m.ApplicationID,
		CommitteeID:   m.CommitteeID.String,
		Title:         m.Title,
		FileURL:       m.FileURL,
		Status:        m.Status,
		Feedback:      m.Feedback,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func papersFromModels(ms []models.Paper) []*proto.Paper {
	papers := make([]*proto.Paper, 0, len(ms))
	for _, m := range ms {
		papers = append(papers, paperFromModel(m))
	}

	return papers
}

// Papers returns all position papers.
func (d *Backend) Papers(ctx context.Context) ([]*proto.Paper, error) {
	ms, err := d.store.GetAllPapers(ctx, d.db)
	if err != nil {
		return nil, err
	}

	return papersFromModels(ms), nil
}

// PapersByCommittee returns the papers of committee id.
func (d *Backend) PapersByCommittee(ctx context.Context, id string) ([]*proto.Paper, error) {
	ms, err := d.store.GetPapersByCommitteeID(ctx, d.db, id)
	if err != nil {
		return nil, err
	}

	return papersFromModels(ms), nil
}

// PapersByApplication returns the papers of application id.
func (d *Backend) PapersByApplication(ctx context.Context, id string) ([]*proto.Paper, error) {
	ms, err := d.store.GetPapersByApplicationID(ctx, d.db, id)
	if err != nil {
		return nil, err
	}

	return papersFromModels(ms), nil
}

// Paper returns the paper with id.
func (d *Backend) Paper(ctx context.Context, id string) (*proto.Paper, error) {
	m, err := d.store.GetPaperByID(ctx, d.db, id)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrPaperNotFound
		}
		return nil, err
	}

	return paperFromModel(m), nil
}

// SubmitPaper files a position paper for the application of email. The
// paper goes to the application's assigned committee.
func (d *Backend) SubmitPaper(ctx context.Context, email, title, fileURL string) (*proto.Paper, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", proto.ErrInvalidInput)
	}

	var m models.Paper
	if err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		app, err := d.store.FindApplicationByEmail(ctx, tx, email)
		if err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				return proto.ErrApplicationNotFound
			}
			return err
		}

		id := uuid.NewString()
		if err := d.store.CreatePaper(ctx, tx, models.Paper{
			ID:            id,
			ApplicationID: app.ID,
			CommitteeID:   app.AssignedCommitteeID,
			Title:         title,
			FileURL:       strings.TrimSpace(fileURL),
			Status:        proto.PaperSubmitted,
		}); err != nil {
			return err
		}

		m, err = d.store.GetPaperByID(ctx, tx, id)
		return err
	}); err != nil {
		return nil, err
	}

	d.publish(ctx, realtime.TablePapers, realtime.Insert, m.ID)
	return paperFromModel(m), nil
}

// ReviewPaper records a review decision and feedback.
func (d *Backend) ReviewPaper(ctx context.Context, id, status, feedback string) error {
	if !proto.ValidPaperStatus(status) {
		return fmt.Errorf("%w: unknown paper status %q", proto.ErrInvalidInput, status)
	}

	if err := d.store.ReviewPaper(ctx, d.db, id, status, strings.TrimSpace(feedback)); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.ErrPaperNotFound
		}
		return err
	}

	d.publish(ctx, realtime.TablePapers, realtime.Update, id)
	return nil
}
