// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/coursehub/internal/app/system/workers"
	"github.com/dalemusser/coursehub/internal/app/workflow"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE passes DBDeps by value to every hook, so the services built in
// Startup live behind a pointer created in ConnectDB.
type DBDeps struct {
	CourseHubMongoClient   *mongo.Client
	CourseHubMongoDatabase *mongo.Database

	services *services
}

// services are built once in Startup and shared by BuildHandler and
// Shutdown.
type services struct {
	engine *workflow.Engine
	relay  *workers.MailRelay
}
