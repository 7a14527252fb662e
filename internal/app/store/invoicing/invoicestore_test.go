package invoicestore_test

import (
	"testing"

	invoicestore "github.com/dalemusser/coursehub/internal/app/store/invoicing"
	"github.com/dalemusser/coursehub/internal/app/system/indexes"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateInvoices(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invoicestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	session := models.Session{ID: primitive.NewObjectID(), Name: "Welding"}
	lines := []models.SubscriptionLine{
		{ID: primitive.NewObjectID(), SubscriptionID: primitive.NewObjectID(), ContactID: primitive.NewObjectID()},
		{ID: primitive.NewObjectID(), SubscriptionID: primitive.NewObjectID(), ContactID: primitive.NewObjectID()},
	}

	refs, err := store.CreateInvoices(ctx, session, lines)
	if err != nil {
		t.Fatalf("CreateInvoices failed: %v", err)
	}
	if len(refs) != 2 || refs[lines[0].ID] == "" || refs[lines[0].ID] == refs[lines[1].ID] {
		t.Fatalf("refs: %v", refs)
	}

	pending, err := store.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending: got %d, want 2", len(pending))
	}
	for _, r := range pending {
		if r.SessionName != "Welding" || r.State != invoicestore.StatePending {
			t.Errorf("request: %+v", r)
		}
		if refs[r.SubscriptionLineID] != r.InvoiceLineID {
			t.Errorf("request %s carries %q, want %q", r.ID.Hex(), r.InvoiceLineID, refs[r.SubscriptionLineID])
		}
	}

	empty, err := store.CreateInvoices(ctx, session, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("no lines: %v %v", empty, err)
	}
}

func TestStore_CreateInvoices_OncePerLine(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := invoicestore.New(db)

	session := models.Session{ID: primitive.NewObjectID(), Name: "S"}
	line := models.SubscriptionLine{ID: primitive.NewObjectID()}
	if _, err := store.CreateInvoices(ctx, session, []models.SubscriptionLine{line}); err != nil {
		t.Fatalf("CreateInvoices failed: %v", err)
	}
	if _, err := store.CreateInvoices(ctx, session, []models.SubscriptionLine{line}); err == nil {
		t.Error("a subscription line must not be invoiced twice")
	}
}
