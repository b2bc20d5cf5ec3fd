package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/mundesk/mundesk/pkg/proto"
)

func TestApplicationLifecycle(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	f := setup(t)

	c, err := f.be.CreateCommittee(ctx, proto.CommitteeOptions{Name: "UNSC", Capacity: 15})
	is.NoErr(err)
	_, err = f.be.CreateCommittee(ctx, proto.CommitteeOptions{Name: "UNSC"})
	is.Equal(err, proto.ErrCommitteeExist)

	app, err := f.be.SubmitApplication(ctx, "d@example.com", proto.ApplicationOptions{FullName: "Del Egate"})
	is.NoErr(err)
	is.Equal(app.Status, proto.StatusPending)
	is.Equal(app.PaymentStatus, PaymentUnpaid)

	_, err = f.be.SubmitApplication(ctx, "d@example.com", proto.ApplicationOptions{FullName: "Again"})
	is.Equal(err, proto.ErrApplicationExist)
	_, err = f.be.SubmitApplication(ctx, "e@example.com", proto.ApplicationOptions{})
	is.True(errors.Is(err, proto.ErrInvalidInput))

	is.NoErr(f.be.SetApplicationStatus(ctx, app.ID, proto.StatusApproved))
	is.Equal(f.be.SetApplicationStatus(ctx, "missing", proto.StatusApproved), proto.ErrApplicationNotFound)

	is.NoErr(f.be.AssignCommittee(ctx, app.ID, c.ID))
	is.Equal(f.be.AssignCommittee(ctx, app.ID, "missing"), proto.ErrCommitteeNotFound)

	c, err = f.be.Committee(ctx, c.ID)
	is.NoErr(err)
	is.Equal(c.SeatsFilled, 1)

	apps, err := f.be.ApplicationsByCommittee(ctx, c.ID)
	is.NoErr(err)
	is.Equal(len(apps), 1)
	is.Equal(apps[0].Status, proto.StatusApproved)

	p, err := f.be.SubmitPaper(ctx, "d@example.com", "On peace", "https://files.example.com/p.pdf")
	is.NoErr(err)
	is.Equal(p.CommitteeID, c.ID)
	is.Equal(p.Status, proto.PaperSubmitted)

	_, err = f.be.SubmitPaper(ctx, "nobody@example.com", "On war", "")
	is.Equal(err, proto.ErrApplicationNotFound)

	is.True(errors.Is(f.be.ReviewPaper(ctx, p.ID, "lovely", ""), proto.ErrInvalidInput))
	is.NoErr(f.be.ReviewPaper(ctx, p.ID, proto.PaperAccepted, "Well argued"))
	p, err = f.be.Paper(ctx, p.ID)
	is.NoErr(err)
	is.Equal(p.Feedback, "Well argued")

	// Clearing the assignment frees the seat.
	is.NoErr(f.be.AssignCommittee(ctx, app.ID, ""))
	c, err = f.be.Committee(ctx, c.ID)
	is.NoErr(err)
	is.Equal(c.SeatsFilled, 0)

	is.NoErr(f.be.DeleteCommittee(ctx, c.ID))
	is.Equal(f.be.DeleteCommittee(ctx, c.ID), proto.ErrCommitteeNotFound)
}
