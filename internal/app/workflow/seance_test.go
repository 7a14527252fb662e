package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/workflow"
	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func purchaseLine(qty float64, fix string, suppliers ...primitive.ObjectID) models.PurchaseLine {
	return models.PurchaseLine{
		ID:          primitive.NewObjectID(),
		ProductID:   primitive.NewObjectID(),
		Quantity:    qty,
		Fix:         fix,
		SupplierIDs: suppliers,
	}
}

func TestConfirmSeance_RequiresSessionsPastOpened(t *testing.T) {
	for _, state := range []models.SessionState{models.SessionDraft, models.SessionOpened} {
		t.Run(string(state), func(t *testing.T) {
			e := newEnv(t, workflow.Options{})
			a := e.seance("A", models.SeanceOpened, day, 1, 5)
			e.session(models.SessionOpenedConfirmed, a)
			e.session(state, a)

			wantCode(t, e.engine.ConfirmSeance(context.Background(), a.ID), errs.ErrPrecondition)
			if got := e.mem.Seance(a.ID).State; got != models.SeanceOpened {
				t.Errorf("state: got %s", got)
			}
			if len(e.proc.All()) != 0 {
				t.Error("no procurement should be issued on a rejected confirm")
			}
		})
	}
}

func TestConfirmSeance_ProcuresCountedParticipations(t *testing.T) {
	e := newEnv(t, workflow.Options{LocationHint: "warehouse"})
	perHead := purchaseLine(3, models.QuantityBySubscription)
	fixed := purchaseLine(1, models.QuantityFixed)
	a := e.mem.PutSeance(models.Seance{
		Name: "A", State: models.SeanceOpened, Date: day, MinLimit: 1, MaxLimit: 10,
		PurchaseLines: []models.PurchaseLine{perHead, fixed},
	})
	s := e.session(models.SessionOpenedConfirmed, a)
	_, p1 := e.subscribe(s, models.SubscriptionConfirmed, a)
	_, p2 := e.subscribe(s, models.SubscriptionConfirmed, a)
	_, pDraft := e.subscribe(s, models.SubscriptionDraft, a)

	if err := e.engine.ConfirmSeance(context.Background(), a.ID); err != nil {
		t.Fatalf("ConfirmSeance: %v", err)
	}

	orders := e.proc.All()
	if len(orders) != 2 {
		t.Fatalf("orders: got %d, want 2", len(orders))
	}
	qty := map[primitive.ObjectID]float64{}
	for _, o := range orders {
		qty[o.PurchaseLineID] = o.Quantity
		if o.LocationHint != "warehouse" {
			t.Errorf("location hint: got %q", o.LocationHint)
		}
	}
	if qty[perHead.ID] != 6 {
		t.Errorf("by_subscription quantity: got %v, want 6", qty[perHead.ID])
	}
	if qty[fixed.ID] != 1 {
		t.Errorf("fixed quantity: got %v, want 1", qty[fixed.ID])
	}

	for _, p := range []models.Participation{p1[0], p2[0]} {
		got := e.mem.Participation(p.ID)
		if got.PurchaseState != models.PurchaseDone {
			t.Errorf("participation %s: purchase state %q", p.ID.Hex(), got.PurchaseState)
		}
		if len(got.PurchaseLineRefs) != 2 {
			t.Errorf("participation %s: refs %v", p.ID.Hex(), got.PurchaseLineRefs)
		}
	}
	if got := e.mem.Participation(pDraft[0].ID).PurchaseState; got != models.PurchasePending {
		t.Errorf("draft subscription should not be procured, got %q", got)
	}

	for _, pl := range e.mem.Seance(a.ID).PurchaseLines {
		if pl.ProcurementID == "" {
			t.Errorf("purchase line %s has no procurement reference", pl.ID.Hex())
		}
	}
	if got := e.mem.Seance(a.ID).State; got != models.SeanceConfirmed {
		t.Errorf("state: got %s", got)
	}
}

func TestConfirmSeance_ManualUsesManualHeadcount(t *testing.T) {
	e := newEnv(t, workflow.Options{})
	perHead := purchaseLine(2, models.QuantityBySubscription)
	a := e.mem.PutSeance(models.Seance{
		Name: "A", State: models.SeanceOpened, Date: day, MaxLimit: 10,
		Manual: true, ManualCount: 4,
		PurchaseLines: []models.PurchaseLine{perHead},
	})
	e.session(models.SessionClosedConfirmed, a)

	if err := e.engine.ConfirmSeance(context.Background(), a.ID); err != nil {
		t.Fatalf("ConfirmSeance: %v", err)
	}
	orders := e.proc.All()
	if len(orders) != 1 || orders[0].Quantity != 8 {
		t.Fatalf("orders: %+v", orders)
	}
}

func TestConfirmSeance_SupplierNotices(t *testing.T) {
	e := newEnv(t, workflow.Options{})
	withDelivery := e.mem.PutSupplier(models.Supplier{Name: "Catering", Addresses: []models.Address{
		{Type: models.AddressDefault, Email: "office@catering.test"},
		{Type: models.AddressDelivery, Email: "deliveries@catering.test"},
	}})
	noAddress := e.mem.PutSupplier(models.Supplier{Name: "Ghost"})
	a := e.mem.PutSeance(models.Seance{
		Name: "A", State: models.SeanceOpened, Date: day, MaxLimit: 10,
		PurchaseLines: []models.PurchaseLine{
			purchaseLine(1, models.QuantityFixed, withDelivery.ID, noAddress.ID),
			purchaseLine(1, models.QuantityFixed, withDelivery.ID),
		},
	})
	e.session(models.SessionOpenedConfirmed, a)

	if err := e.engine.ConfirmSeance(context.Background(), a.ID); err != nil {
		t.Fatalf("ConfirmSeance: %v", err)
	}
	sent := e.notif.ByTemplate(models.TemplateSupplierDelivery)
	if len(sent) != 1 {
		t.Fatalf("supplier notices: got %d, want 1", len(sent))
	}
	if sent[0].To[0].Email != "deliveries@catering.test" {
		t.Errorf("recipient: got %q", sent[0].To[0].Email)
	}
	if len(sent[0].Attachments) != 1 {
		t.Errorf("expected the delivery note attached")
	}
}

func TestConfirmSeance_RollsBackOnProcurementFailure(t *testing.T) {
	e := newEnv(t, workflow.Options{})
	a := e.mem.PutSeance(models.Seance{
		Name: "A", State: models.SeanceOpened, Date: day, MaxLimit: 10,
		PurchaseLines: []models.PurchaseLine{purchaseLine(1, models.QuantityFixed)},
	})
	s := e.session(models.SessionOpenedConfirmed, a)
	_, ps := e.subscribe(s, models.SubscriptionConfirmed, a)
	e.proc.Err = errors.New("purchasing offline")

	if err := e.engine.ConfirmSeance(context.Background(), a.ID); err == nil {
		t.Fatal("expected error")
	}
	if got := e.mem.Seance(a.ID).State; got != models.SeanceOpened {
		t.Errorf("state: got %s, want opened", got)
	}
	if got := e.mem.Participation(ps[0].ID).PurchaseState; got != models.PurchasePending {
		t.Errorf("purchase state: got %q", got)
	}
}

func TestStartSeance_SignalsSessions(t *testing.T) {
	e := newEnv(t, workflow.Options{})
	a := e.seance("A", models.SeanceConfirmed, day, 1, 5)
	ready := e.session(models.SessionClosedConfirmed, a)
	early := e.session(models.SessionOpenedConfirmed, a)

	if err := e.engine.StartSeance(context.Background(), a.ID); err != nil {
		t.Fatalf("StartSeance: %v", err)
	}
	if got := e.mem.Seance(a.ID).State; got != models.SeanceInProgress {
		t.Errorf("seance: got %s", got)
	}
	if got := e.mem.Session(ready.ID).State; got != models.SessionInProgress {
		t.Errorf("closed_confirmed session: got %s, want in_progress", got)
	}
	if got := e.mem.Session(early.ID).State; got != models.SessionOpenedConfirmed {
		t.Errorf("session that cannot start was moved: %s", got)
	}
}

func TestDoneSeance_ClosesSessionsAndStakeholders(t *testing.T) {
	e := newEnv(t, workflow.Options{})
	a := e.seance("A", models.SeanceInProgress, day, 1, 5)
	s := e.session(models.SessionInProgress, a)
	l, _ := e.subscribe(s, models.SubscriptionConfirmed, a)
	accepted := e.mem.PutStakeholder(models.Stakeholder{SeanceID: a.ID, State: models.StakeholderAccepted})
	refused := e.mem.PutStakeholder(models.Stakeholder{SeanceID: a.ID, State: models.StakeholderRefused})

	if err := e.engine.DoneSeance(context.Background(), a.ID); err != nil {
		t.Fatalf("DoneSeance: %v", err)
	}
	if got := e.mem.Stakeholder(accepted.ID).State; got != models.StakeholderDone {
		t.Errorf("accepted lecturer: got %s", got)
	}
	if got := e.mem.Stakeholder(refused.ID).State; got != models.StakeholderRefused {
		t.Errorf("refused lecturer changed: %s", got)
	}
	if got := e.mem.Session(s.ID).State; got != models.SessionClosed {
		t.Errorf("session: got %s, want closed", got)
	}
	if got := e.mem.Line(l.ID).State; got != models.SubscriptionDone {
		t.Errorf("line: got %s, want done", got)
	}
}

func TestCancelSeance(t *testing.T) {
	t.Run("requires a cancelled or running session", func(t *testing.T) {
		e := newEnv(t, workflow.Options{})
		a := e.seance("A", models.SeanceOpened, day, 1, 5)
		s := e.session(models.SessionOpened, a)
		_, ps := e.subscribe(s, models.SubscriptionConfirmed, a)

		wantCode(t, e.engine.CancelSeance(context.Background(), a.ID), errs.ErrPrecondition)
		if e.mem.Participation(ps[0].ID).ID.IsZero() {
			t.Error("participation removed despite guard")
		}
	})

	t.Run("cascades", func(t *testing.T) {
		e := newEnv(t, workflow.Options{})
		pl := purchaseLine(1, models.QuantityBySubscription)
		a := e.mem.PutSeance(models.Seance{
			Name: "A", State: models.SeanceOpened, Date: day, MaxLimit: 10,
			PurchaseLines: []models.PurchaseLine{pl},
		})
		running := e.session(models.SessionOpenedConfirmed, a)
		_, ps := e.subscribe(running, models.SubscriptionConfirmed, a)
		if err := e.engine.ConfirmSeance(context.Background(), a.ID); err != nil {
			t.Fatalf("ConfirmSeance: %v", err)
		}
		e.mem.PutSession(func() models.Session { x := e.mem.Session(running.ID); x.State = models.SessionInProgress; return x }())

		draft := e.mem.PutStakeholder(models.Stakeholder{SeanceID: a.ID, State: models.StakeholderDraft})
		accepted := e.mem.PutStakeholder(models.Stakeholder{SeanceID: a.ID, State: models.StakeholderAccepted})

		if err := e.engine.CancelSeance(context.Background(), a.ID); err != nil {
			t.Fatalf("CancelSeance: %v", err)
		}
		if got := e.mem.Seance(a.ID).State; got != models.SeanceCancelled {
			t.Errorf("seance: got %s", got)
		}
		if len(e.mem.ParticipationsOf(a.ID)) != 0 {
			t.Error("participations should be removed")
		}
		if !e.mem.Participation(ps[0].ID).ID.IsZero() {
			t.Error("participation still present")
		}
		if len(e.proc.Cancelled) != 1 {
			t.Errorf("cancelled orders: %v", e.proc.Cancelled)
		}
		for _, sh := range []models.Stakeholder{draft, accepted} {
			if got := e.mem.Stakeholder(sh.ID).State; got != models.StakeholderCancelled {
				t.Errorf("stakeholder %s: got %s", sh.ID.Hex(), got)
			}
		}
		if got := e.mem.Session(running.ID).State; got != models.SessionClosed {
			t.Errorf("session: got %s, want closed", got)
		}
	})
}

func TestDeleteSeance(t *testing.T) {
	t.Run("confirmed with procurement", func(t *testing.T) {
		e := newEnv(t, workflow.Options{})
		pl := purchaseLine(1, models.QuantityFixed)
		pl.ProcurementID = "PO-1"
		a := e.mem.PutSeance(models.Seance{Name: "A", State: models.SeanceConfirmed, Date: day, PurchaseLines: []models.PurchaseLine{pl}})

		err := e.engine.DeleteSeance(context.Background(), a.ID)
		wantCode(t, err, errs.ErrPrecondition)
		if err.Error() != "cannot delete seance with confirmed procurement" {
			t.Errorf("message: %q", err.Error())
		}
	})

	t.Run("invoiced participant", func(t *testing.T) {
		e := newEnv(t, workflow.Options{})
		a := e.seance("A", models.SeanceOpened, day, 1, 5)
		s := e.session(models.SessionInProgress, a)
		l, _ := e.subscribe(s, models.SubscriptionConfirmed, a)
		e.mem.PutLine(func() models.SubscriptionLine { x := l; x.InvoiceLineID = "INV-1"; return x }())

		err := e.engine.DeleteSeance(context.Background(), a.ID)
		wantCode(t, err, errs.ErrPrecondition)
		if err.Error() != "cannot delete seance with invoiced subscription" {
			t.Errorf("message: %q", err.Error())
		}
	})

	t.Run("removes from sessions and recomputes", func(t *testing.T) {
		e := newEnv(t, workflow.Options{})
		a := e.seance("A", models.SeanceOpened, day, 1, 5)
		b := e.seance("B", models.SeanceOpened, day, 3, 8)
		s := e.session(models.SessionOpened, a, b)
		e.subscribe(s, models.SubscriptionConfirmed, a)

		if err := e.engine.DeleteSeance(context.Background(), a.ID); err != nil {
			t.Fatalf("DeleteSeance: %v", err)
		}
		got := e.mem.Session(s.ID)
		if len(got.SeanceIDs) != 1 || got.SeanceIDs[0] != b.ID {
			t.Errorf("seance ids: %v", got.SeanceIDs)
		}
		if got.MinLimit != 3 || got.MaxLimit != 8 {
			t.Errorf("limits: got %d/%d, want 3/8", got.MinLimit, got.MaxLimit)
		}
		if len(e.mem.ParticipationsOf(a.ID)) != 0 {
			t.Error("participations should be removed")
		}
	})
}

func TestCopySeance(t *testing.T) {
	e := newEnv(t, workflow.Options{})
	src := e.mem.PutSeance(models.Seance{Name: "A", State: models.SeanceConfirmed, Date: day, IsFirstSeance: true, MaxLimit: 4})

	cp, err := e.engine.CopySeance(context.Background(), src.ID)
	if err != nil {
		t.Fatalf("CopySeance: %v", err)
	}
	if cp.IsFirstSeance {
		t.Error("copy must not be a first seance")
	}
	if e.mem.Seance(cp.ID).ID.IsZero() {
		t.Error("copy not stored")
	}
}

func TestSeanceWrites(t *testing.T) {
	e := newEnv(t, workflow.Options{})
	ctx := context.Background()

	_, err := e.engine.CreateSeance(ctx, models.Seance{Name: "Bad", Date: day, MinLimit: 5, MaxLimit: 2})
	wantCode(t, err, errs.ErrInvariant)
	if err.Error() != "min_limit must not exceed max_limit" {
		t.Errorf("message: %q", err.Error())
	}

	a, err := e.engine.CreateSeance(ctx, models.Seance{Name: "A", Date: day, MinLimit: 1, MaxLimit: 5})
	if err != nil {
		t.Fatalf("CreateSeance: %v", err)
	}
	if a.State != models.SeanceOpened {
		t.Errorf("new seance state: %s", a.State)
	}
	s := e.session(models.SessionOpened, a)

	wantCode(t, e.engine.SetSeanceLimits(ctx, a.ID, 6, 5), errs.ErrInvariant)
	if err := e.engine.SetSeanceLimits(ctx, a.ID, 2, 12); err != nil {
		t.Fatalf("SetSeanceLimits: %v", err)
	}
	if got := e.mem.Session(s.ID); got.MinLimit != 2 || got.MaxLimit != 12 {
		t.Errorf("session limits not recomputed: %d/%d", got.MinLimit, got.MaxLimit)
	}

	wantCode(t, e.engine.RescheduleSeance(ctx, a.ID, day.Add(-time.Hour)), errs.ErrInvariant)
	wantCode(t, e.engine.RescheduleSeance(ctx, a.ID, day.AddDate(0, 0, 7)), errs.ErrPrecondition)
	if err := e.engine.RescheduleSeance(ctx, a.ID, day.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("RescheduleSeance: %v", err)
	}
}

func TestOpenSeancesForOffer(t *testing.T) {
	e := newEnv(t, workflow.Options{})
	course := primitive.NewObjectID()
	other := primitive.NewObjectID()
	offer := e.mem.PutOffer(models.Offer{Name: "Welding", CourseIDs: []primitive.ObjectID{course}})

	want := e.mem.PutSeance(models.Seance{Name: "ok", State: models.SeanceOpened, Date: day, CourseID: &course})
	e.mem.PutSeance(models.Seance{Name: "past", State: models.SeanceOpened, Date: day.AddDate(0, 0, -5), CourseID: &course})
	e.mem.PutSeance(models.Seance{Name: "dup", State: models.SeanceOpened, Date: day, CourseID: &course, Duplicated: true})
	e.mem.PutSeance(models.Seance{Name: "confirmed", State: models.SeanceConfirmed, Date: day, CourseID: &course})
	e.mem.PutSeance(models.Seance{Name: "other", State: models.SeanceOpened, Date: day, CourseID: &other})

	got, err := e.engine.OpenSeancesForOffer(context.Background(), offer.ID, time.Time{})
	if err != nil {
		t.Fatalf("OpenSeancesForOffer: %v", err)
	}
	if len(got) != 1 || got[0].ID != want.ID {
		t.Errorf("got %d seances", len(got))
	}
}
