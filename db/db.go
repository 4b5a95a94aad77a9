package db

import (
	"fmt"
	"time"

	"github.com/solascan/cttracker/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns a single GORM connection handle
type Database struct {
	Gorm *gorm.DB
}

// PoolConfig holds connection pool options
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns sensible defaults for production
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// MySQLDSN builds a production DSN for the given connection parameters
// parseTime=True - parse MySQL datetime to Go time.Time
// charset=utf8mb4 - full Unicode support
// timeout/readTimeout/writeTimeout - bounded I/O
func MySQLDSN(user, password, host, port, dbName string) string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=True&charset=utf8mb4&loc=Local&timeout=10s&readTimeout=30s&writeTimeout=30s",
		user, password, host, port, dbName,
	)
}

// ConnectMySQL opens a pooled MySQL connection
func ConnectMySQL(user, password, dbName, host, port string) (*Database, error) {
	return Connect(mysql.Open(MySQLDSN(user, password, host, port, dbName)), DefaultPoolConfig())
}

// Connect opens a connection for the given dialector and configures pooling
func Connect(dialector gorm.Dialector, pool *PoolConfig) (*Database, error) {
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn), // Less verbose in production
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	if pool != nil {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{Gorm: gormDB}, nil
}

// AutoMigrate creates or updates tables without dropping existing data
func (d *Database) AutoMigrate() error {
	if err := d.Gorm.AutoMigrate(
		&models.Activity{},
		&models.TokenAccount{},
		&models.Mint{},
		&models.IndexerState{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}

// Migrate drops and recreates all tables (use with caution in production)
func (d *Database) Migrate() error {
	tables := []interface{}{
		&models.Activity{},
		&models.TokenAccount{},
		&models.Mint{},
		&models.IndexerState{},
	}
	for _, table := range tables {
		if err := d.Gorm.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return d.AutoMigrate()
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying DB: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck verifies database connectivity
func (d *Database) HealthCheck() error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying DB: %w", err)
	}
	return sqlDB.Ping()
}
