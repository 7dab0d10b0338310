package dialect

import (
	"database/sql"
	"fmt"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	go_ora "github.com/sijms/go-ora/v2"
)

// Factory returns the appropriate Dialect implementation based on driver name.
func GetDialect(driver string) Dialect {
	switch driver {
	case "postgres", "pgx":
		return &PostgresDialect{}
	case "sqlserver", "mssql":
		return &MSSQLDialect{}
	case "oracle":
		return &OracleDialect{}
	default: // mysql
		return &MysqlDialect{}
	}
}

// Detect picks the dialect from the driver backing db.
func Detect(db *sql.DB) (Dialect, error) {
	switch drv := db.Driver().(type) {
	case *mysql.MySQLDriver:
		return &MysqlDialect{}, nil
	case *go_ora.OracleDriver:
		return &OracleDialect{}, nil
	case *pq.Driver, *stdlib.Driver:
		return &PostgresDialect{}, nil
	case *mssql.Driver:
		return &MSSQLDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %T", drv)
	}
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
