package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"validator-explorer/internal/config"
	"validator-explorer/internal/erapoller"
	"validator-explorer/internal/snapshot"
	"validator-explorer/internal/storage"
	chstore "validator-explorer/internal/storage/clickhouse"
	"validator-explorer/internal/storage/memory"
	"validator-explorer/internal/storage/migrations"
	"validator-explorer/internal/storage/mongo"
	pgstore "validator-explorer/internal/storage/postgres"
)

// DBPlaceholder in a price backend DSN is replaced by the chain's database
// name, so every chain gets its own price table.
const DBPlaceholder = "{db}"

// Backends holds the opened stores of every configured chain.
type Backends struct {
	Chains  map[string]*storage.Stores // by upper-case alias
	Actions *storage.ActionStores
	Redis   *redis.Client // nil when redis is disabled

	closers []func()
}

// OpenBackends connects every store the config names. With useMemory all
// stores are in-memory and nothing is dialed.
func OpenBackends(ctx context.Context, cfg *config.Config, useMemory bool, log *logrus.Entry) (_ *Backends, err error) {
	b := &Backends{Chains: make(map[string]*storage.Stores, len(cfg.Chains))}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	if useMemory {
		for _, ch := range cfg.Chains {
			b.Chains[strings.ToUpper(ch.Alias)] = memory.NewChain().Stores()
		}
		b.Actions = memory.NewActionStores()
		log.Info("using in-memory stores")
		return b, nil
	}

	client, err := mongo.Connect(ctx, mongo.Options{
		URI:               cfg.Mongo.URI,
		Address:           cfg.Mongo.Address,
		Port:              cfg.Mongo.Port,
		Database:          cfg.Mongo.ActionsDatabase,
		HasCredential:     cfg.Mongo.HasCredential,
		Username:          cfg.Mongo.Username,
		Password:          cfg.Mongo.Password,
		HasTLS:            cfg.Mongo.HasTLS,
		CAFile:            cfg.Mongo.CAFile,
		CertKeyFile:       cfg.Mongo.CertKeyFile,
		AllowInvalidCerts: cfg.Mongo.AllowInvalidCerts,
		AppName:           cfg.Mongo.AppName,
		ConnectTimeout:    cfg.Mongo.ConnectTimeout,
		QueryTimeout:      cfg.Mongo.QueryTimeout,
	})
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(ctx)
	})

	for _, ch := range cfg.Chains {
		prices, err := b.openPrices(ctx, cfg.Prices, ch)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", ch.Alias, err)
		}
		b.Chains[strings.ToUpper(ch.Alias)] = mongo.NewStores(client.DB(ch.Database), prices)
		log.WithFields(logrus.Fields{
			"chain":    ch.Alias,
			"database": ch.Database,
			"prices":   cfg.Prices.Backend,
		}).Info("chain stores ready")
	}

	actionsDB := client.DB(cfg.Mongo.ActionsDatabase)
	if err := mongo.EnsureActionIndexes(ctx, actionsDB); err != nil {
		return nil, err
	}
	b.Actions = mongo.NewActionStores(actionsDB)

	if addr := cfg.Redis.Addr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("%w: ping redis %s: %v", storage.ErrUnavailable, addr, err)
		}
		b.Redis = rdb
	}
	return b, nil
}

// openPrices opens the SQL price store of one chain. The mongo backend
// returns nil and the chain database's price collection is used.
func (b *Backends) openPrices(ctx context.Context, p config.PricesConfig, ch config.ChainConfig) (storage.PriceStore, error) {
	switch p.Backend {
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, chainDSN(p.PostgresDSN, ch.Database))
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		if p.Migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return nil, err
			}
		}
		return pgstore.NewPriceStore(pool), nil

	case config.BackendClickhouse:
		dsn := chainDSN(p.ClickhouseDSN, ch.Database)
		var (
			conn *chstore.Conn
			err  error
		)
		if p.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, dsn)
		} else {
			conn, err = chstore.NewConn(ctx, dsn)
		}
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = conn.Close() })
		return chstore.NewPriceStore(conn), nil
	}
	return nil, nil
}

func chainDSN(dsn, database string) string {
	return strings.ReplaceAll(dsn, DBPlaceholder, database)
}

// SnapshotSource returns the redis snapshot source, or an empty in-memory
// one when redis is disabled.
func (b *Backends) SnapshotSource() snapshot.Source {
	if b.Redis != nil {
		return snapshot.NewRedisSource(b.Redis)
	}
	return snapshot.NewMemorySource()
}

// EraSlot returns the slot the era pollers write into.
func (b *Backends) EraSlot() erapoller.Slot {
	if b.Redis != nil {
		return erapoller.NewRedisSlot(b.Redis)
	}
	return erapoller.NewMemorySlot()
}

// ChainInfo returns the connect func of the era poller of alias.
func (b *Backends) ChainInfo(alias string) erapoller.ConnectFunc {
	return func(context.Context) (storage.ChainInfoStore, error) {
		stores, ok := b.Chains[alias]
		if !ok {
			return nil, fmt.Errorf("chain %s: %w", alias, storage.ErrNotFound)
		}
		return stores.ChainInfo, nil
	}
}

// Close releases every connection in reverse opening order.
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
