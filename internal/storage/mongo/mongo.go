// Package mongo implements the storage interfaces on top of the staking
// document store. One database holds the collections of one chain.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"validator-explorer/internal/observability"
	"validator-explorer/internal/storage"
)

// Collection names.
const (
	CollNomination     = "nomination"
	CollValidator      = "validator"
	CollUnclaimedEra   = "unclaimedEraInfo"
	CollValidatorSlash = "validatorSlash"
	CollNominator      = "nominator"
	CollStashInfo      = "stashInfo"
	CollPrice          = "price"
	CollChainInfo      = "chainInfo"
	CollCommission     = "commission"
	CollStalePayouts   = "stalePayouts"
	CollInactiveEvents = "inactiveEvents"
	CollKickEvents     = "kickEvents"
	CollChillEvents    = "chillEvents"
	CollOverSubscribe  = "overSubscribeEvents"
	CollUserEventMap   = "userEventMapping"
	CollNominationRecs = "nominationRecords"
	CollRefKeyRecords  = "refKeyRecords"
	CollNewsletter     = "newsletter"
)

// Options configures the connection to the document store.
type Options struct {
	URI               string // overrides the fields below when set
	Address           string
	Port              int
	Database          string // default database in the connection string
	HasCredential     bool
	Username          string
	Password          string
	HasTLS            bool
	CAFile            string
	CertKeyFile       string
	AllowInvalidCerts bool
	AppName           string
	ConnectTimeout    time.Duration
	QueryTimeout      time.Duration
}

// Client wraps mongo.Client for dependency injection.
type Client struct {
	*mongo.Client
	queryTimeout time.Duration
}

// Connect creates a client and verifies the deployment is reachable.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	uri := opts.URI
	if uri == "" {
		uri = BuildURI(opts)
	}

	clientOpts := options.Client().ApplyURI(uri)
	if opts.AppName != "" {
		clientOpts.SetAppName(opts.AppName)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", translate(err))
	}

	return &Client{Client: client, queryTimeout: opts.QueryTimeout}, nil
}

// BuildURI renders the connection string for opts. Credentials are only
// included when HasCredential is set; TLS files become URI options.
func BuildURI(opts Options) string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   opts.Address + ":" + strconv.Itoa(opts.Port),
		Path:   "/" + opts.Database,
	}
	if opts.HasCredential && opts.Username != "" {
		u.User = url.UserPassword(opts.Username, opts.Password)
	}

	if opts.HasTLS {
		q := url.Values{}
		q.Set("tls", "true")
		if opts.CAFile != "" {
			q.Set("tlsCAFile", opts.CAFile)
		}
		if opts.CertKeyFile != "" {
			q.Set("tlsCertificateKeyFile", opts.CertKeyFile)
		}
		if opts.AllowInvalidCerts {
			q.Set("tlsAllowInvalidCertificates", "true")
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}

// DB returns a handle on one database.
func (c *Client) DB(name string) *DB {
	return &DB{
		db:           c.Client.Database(name),
		name:         name,
		queryTimeout: c.queryTimeout,
	}
}

// DB is a database handle shared by the stores of one chain.
type DB struct {
	db           *mongo.Database
	name         string
	queryTimeout time.Duration
}

// Name returns the database name.
func (d *DB) Name() string {
	return d.name
}

func (d *DB) coll(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// withTimeout bounds a single query by the configured query timeout.
func (d *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.queryTimeout)
}

// observe records query metrics for one operation.
func (d *DB) observe(operation string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	observability.RecordDBQuery("mongo", operation, time.Since(start).Seconds(), err)
}

// aggregateAll runs a pipeline and decodes every result into out.
func (d *DB) aggregateAll(ctx context.Context, coll, operation string, pipeline any, out any) (err error) {
	start := time.Now()
	defer func() { d.observe(operation, start, err) }()

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	cur, err := d.coll(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, translate(err))
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("%s: %w", operation, translate(err))
	}
	return nil
}

// findAll runs a find and decodes every result into out.
func (d *DB) findAll(ctx context.Context, coll, operation string, filter any, out any, opts ...*options.FindOptions) (err error) {
	start := time.Now()
	defer func() { d.observe(operation, start, err) }()

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	cur, err := d.coll(coll).Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, translate(err))
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("%s: %w", operation, translate(err))
	}
	return nil
}

// findOne decodes the first match into out. Returns ErrNotFound on no match.
func (d *DB) findOne(ctx context.Context, coll, operation string, filter any, out any, opts ...*options.FindOneOptions) (err error) {
	start := time.Now()
	defer func() { d.observe(operation, start, err) }()

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	if err := d.coll(coll).FindOne(ctx, filter, opts...).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("%s: %w", operation, translate(err))
	}
	return nil
}

// translate maps driver errors onto storage sentinels, keeping the cause.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var selErr topology.ServerSelectionError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", storage.ErrDuplicateKey, err)
	case errors.Is(err, mongo.ErrClientDisconnected),
		mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.As(err, &selErr):
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return err
}

// translateWrite maps a failed write onto ErrDuplicateKey or ErrWriteFailed.
func translateWrite(err error) error {
	if err == nil {
		return nil
	}
	err = translate(err)
	if errors.Is(err, storage.ErrDuplicateKey) || errors.Is(err, storage.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", storage.ErrWriteFailed, err)
}
