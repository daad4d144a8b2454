package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	c "github.com/life-stream-dev/apm-demo/internal/config"
	"github.com/life-stream-dev/apm-demo/internal/logger"
	"github.com/life-stream-dev/apm-demo/internal/utils"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	VisitCollectionName   = "visit_counters"
	SessionCollectionName = "sessions"

	defaultOperationTimeout = 5 * time.Second
	connectTimeout          = 15 * time.Second
)

// Mongo owns a connected client and the configured database.
type Mongo struct {
	Client           *mongo.Client
	Database         *mongo.Database
	OperationTimeout time.Duration
}

// BuildMongoURI renders the connection string. Credentials are escaped as URL
// userinfo, which the driver's connstring parser path-unescapes.
func BuildMongoURI(config c.DatabaseConfig) string {
	uri := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(config.Host, strconv.FormatUint(config.Port, 10)),
		Path:   "/",
	}
	if config.Username != "" {
		uri.User = url.UserPassword(config.Username, config.Password)
		uri.RawQuery = "authSource=admin"
	}
	return uri.String()
}

func mongoClientOptions(config c.DatabaseConfig, appName string) *options.ClientOptions {
	clientOptions := options.Client().ApplyURI(BuildMongoURI(config)).SetAppName(appName)
	// pool
	clientOptions.SetMinPoolSize(config.MinPoolSize)
	if config.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(config.MaxPoolSize)
	}
	if d, err := utils.ParseStringTime(config.ConnectIdleTimeout); err == nil {
		clientOptions.SetMaxConnIdleTime(d)
	}
	// timeouts
	if d, err := utils.ParseStringTime(config.ConnectTimeout); err == nil {
		clientOptions.SetConnectTimeout(d)
	}
	if d, err := utils.ParseStringTime(config.SocketTimeout); err == nil {
		clientOptions.SetSocketTimeout(d)
	}
	if d, err := utils.ParseStringTime(config.Heartbeat); err == nil {
		clientOptions.SetHeartbeatInterval(d)
	}
	if config.UseTLS {
		clientOptions.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	// pool events
	clientOptions.SetPoolMonitor(&event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				logger.DebugF("Database connection created: address=%s id=%d", evt.Address, evt.ConnectionID)
			case event.ConnectionClosed:
				logger.DebugF("Database connection closed: address=%s id=%d reason=%s", evt.Address, evt.ConnectionID, evt.Reason)
			}
		},
	})
	return clientOptions
}

// ConnectMongo dials and pings MongoDB using the database section of the config.
func ConnectMongo(ctx context.Context, config c.DatabaseConfig, appName string) (*Mongo, error) {
	logger.DebugF("Connecting to database %s:%d...", config.Host, config.Port)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, mongoClientOptions(config, appName))
	if err != nil {
		return nil, fmt.Errorf("error occured while connecting to database: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("error occured while pinging database: %w", err)
	}

	logger.InfoF("Connected to database %s", config.Database)
	return &Mongo{
		Client:           client,
		Database:         client.Database(config.Database),
		OperationTimeout: utils.ParseStringTimeOr(config.OperationTimeout, defaultOperationTimeout),
	}, nil
}

func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.Database.Collection(name)
}

// Invoke disconnects the client; Mongo is registered with the Cleaner.
func (m *Mongo) Invoke(ctx context.Context) error {
	logger.InfoF("Closing database connection")
	return m.Client.Disconnect(ctx)
}
