package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// IsDuplicateEntry reports whether err is a MySQL unique key violation.
// Concurrent scan workers may race to create the same album/artist/song;
// the caller treats a duplicate as "someone else just created it" and
// re-reads instead of failing.
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
