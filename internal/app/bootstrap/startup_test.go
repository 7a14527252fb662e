package bootstrap

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "coursehub",
		SiteName:            "CourseHub",
		ProcurementLocation: "internal",
		AuditLogTransitions: "all",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(*AppConfig) {}, false},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "localhost:27017" }, true},
		{"empty procurement location", func(c *AppConfig) { c.ProcurementLocation = "" }, true},
		{"unknown audit mode", func(c *AppConfig) { c.AuditLogTransitions = "everything" }, true},
		{"audit off", func(c *AppConfig) { c.AuditLogTransitions = "off" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStartup_WiresEngineAndRoutes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	defer timeouts.Reset()

	deps := DBDeps{
		CourseHubMongoClient:   db.Client(),
		CourseHubMongoDatabase: db,
		services:               &services{},
	}
	cfg := validConfig()
	cfg.MailRelayInterval = time.Hour
	cfg.TimeoutTransition = 45 * time.Second

	if err := EnsureSchema(ctx, nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if err := Startup(ctx, nil, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	defer deps.services.relay.Stop()

	if deps.services.engine == nil {
		t.Fatal("engine not built")
	}
	if got := timeouts.Transition(); got != 45*time.Second {
		t.Errorf("transition timeout: got %v", got)
	}

	h, err := BuildHandler(nil, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("GET", "/health"))
	rec.AssertStatus(t, http.StatusOK)

	fx := testutil.NewFixtures(t, db)
	date := time.Now().UTC().AddDate(0, 0, 14).Truncate(time.Hour)
	se := fx.CreateSeance(ctx, "Day 1", date, 1, 10)
	s := fx.CreateSession(ctx, "Welding", date, se.ID)

	rec = testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("POST", "/api/sessions/"+s.ID.Hex()+"/events/open"))
	rec.AssertStatus(t, http.StatusNoContent)

	var got models.Session
	if err := db.Collection("sessions").FindOne(ctx, bson.M{"_id": s.ID}).Decode(&got); err != nil {
		t.Fatalf("load session: %v", err)
	}
	if got.State != models.SessionOpened {
		t.Errorf("state: got %s, want opened", got.State)
	}

	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{"entity_id": s.ID})
	if err != nil {
		t.Fatalf("count audit events: %v", err)
	}
	if n != 1 {
		t.Errorf("audit events: got %d, want 1", n)
	}
}
