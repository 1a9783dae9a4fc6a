package database

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers the repositories classify.
const (
	ErrNumDuplicateEntry  = 1062 // unique key violation
	ErrNumNoReferencedRow = 1452 // foreign key parent missing
	ErrNumOutOfRange      = 1264 // value out of range for column
)

// Settings identifies the MySQL server and schema to connect to.
type Settings struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// DSN renders s as a go-sql-driver DSN.  parseTime with loc=UTC keeps
// DATETIME columns as UTC time.Time values; clientFoundRows makes UPDATE
// report matched rows rather than changed rows, so setting a column to
// its current value still counts as found.  multiStatements is only
// enabled for the migration connection.
func (s Settings) DSN(multiStatements bool) string {
	c := mysql.NewConfig()
	c.User = s.User
	c.Passwd = s.Pass
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(s.Host, s.Port)
	c.DBName = s.Name
	c.ParseTime = true
	c.Loc = time.UTC
	c.ClientFoundRows = true
	c.MultiStatements = multiStatements
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, s Settings) (*sql.DB, error) {
	db, err := sql.Open("mysql", s.DSN(false))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// IsMySQLError reports whether err wraps a MySQL server error with the
// given number.
func IsMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}
