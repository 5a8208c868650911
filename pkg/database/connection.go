package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the run history store.
type DB struct {
	*gorm.DB
}

// Options tunes the connection pool. A zero SQLLog keeps gorm silent.
type Options struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SQLLog          logger.LogLevel
}

// NewConnection opens the postgres run store. Development logs every statement.
func NewConnection(databaseURL string, isDevelopment bool) (*DB, error) {
	opts := Options{
		MaxIdleConns:    5,
		MaxOpenConns:    20,
		ConnMaxLifetime: time.Hour,
		SQLLog:          logger.Error,
	}
	if isDevelopment {
		opts.SQLLog = logger.Info
	}

	db, err := Open(postgres.Open(databaseURL), opts)
	if err != nil {
		return nil, err
	}
	logrus.WithField("max_open_conns", opts.MaxOpenConns).Info("Database connection established")
	return db, nil
}

// Open connects through any gorm dialector and verifies the connection.
func Open(dialector gorm.Dialector, opts Options) (*DB, error) {
	sqlLog := opts.SQLLog
	if sqlLog == 0 {
		sqlLog = logger.Silent
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(sqlLog),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{gdb}, nil
}

func (db *DB) Ping() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
