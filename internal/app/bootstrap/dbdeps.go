// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/app/system/watch"
)

// DBDeps holds database and shared backend resources for the app. The change
// hubs and the notification queue live here so the startup hook (watchers,
// background jobs) and BuildHandler wire against the same instances.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Hubs   map[string]*watch.Hub
	Notify *notify.Queue
}
