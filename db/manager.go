package db

import (
	"context"
	"fmt"
	"strings"

	"photosocial/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var ORM *gorm.DB

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.DBName,
	)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
			NoLowerCase:   false,
		},
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
}

// ConnectDB opens the store described by conf, migrates it and publishes it as ORM.
func ConnectDB(conf *config.ConfigSchema) (err error) {
	if ORM != nil {
		return nil
	}
	if conf == nil {
		return fmt.Errorf("AppConfig is not loaded")
	}

	var db *gorm.DB
	switch conf.Databases.Driver {
	case "sqlite":
		path := conf.Databases.SQLitePath
		if path == "" {
			path = "social.db"
		}
		db, err = OpenSQLite(path)
	default:
		db, err = openPostgres(conf)
	}
	if err != nil {
		return err
	}

	if err = Migrate(db); err != nil {
		return err
	}
	ORM = db
	return nil
}

func openPostgres(conf *config.ConfigSchema) (*gorm.DB, error) {
	masterDSN := conf.Databases.DSN
	if masterDSN == "" {
		if conf.Databases.Master.Host == "" {
			return nil, fmt.Errorf("master database configuration is missing")
		}
		masterDSN = dsnFromConfig(conf.Databases.Master)
	}

	replicas := make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
	for _, r := range conf.Databases.Replicas {
		replicas = append(replicas, postgres.Open(dsnFromConfig(r)))
	}

	db, err := gorm.Open(postgres.Open(masterDSN), gormConfig())
	if err != nil {
		return nil, err
	}

	if len(replicas) > 0 {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, err
		}
	}
	return db, nil
}

// OpenSQLite opens a sqlite store. A single connection keeps shared-cache
// in-memory databases consistent across calls.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func Close() error {
	if ORM == nil {
		return nil
	}
	sqlDB, err := ORM.DB()
	if err != nil {
		return err
	}
	ORM = nil
	return sqlDB.Close()
}

// GetReadOnlyDB returns a handle routed to replicas when they are configured.
// The handle may be reused for several queries.
func GetReadOnlyDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Read).Session(&gorm.Session{})
}

// GetWriteDB returns a reusable handle routed to the master.
func GetWriteDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Write).Session(&gorm.Session{})
}

// OpenInMemory opens a migrated private in-memory sqlite store.
func OpenInMemory(name string) (*gorm.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	db, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
