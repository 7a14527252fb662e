package supplierstore_test

import (
	"testing"

	supplierstore "github.com/dalemusser/coursehub/internal/app/store/suppliers"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_ByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := supplierstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateSupplier(ctx, "Catering", models.AddressDelivery, "d@catering.test")
	fx.CreateSupplier(ctx, "Other", models.AddressDefault, "o@other.test")

	got, err := store.ByIDs(ctx, []primitive.ObjectID{a.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("ByIDs failed: %v", err)
	}
	if len(got) != 1 || got[0].Addresses[0].Email != "d@catering.test" {
		t.Errorf("got %+v", got)
	}
	empty, err := store.ByIDs(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("ByIDs(nil): %v %v", empty, err)
	}
}
