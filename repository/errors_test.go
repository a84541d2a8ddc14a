package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateEntry(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'uq_title_artist'"}
	assert.True(t, IsDuplicateEntry(dup))
	assert.True(t, IsDuplicateEntry(fmt.Errorf("failed to execute CreateSong: %w", dup)))

	other := &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}
	assert.False(t, IsDuplicateEntry(other))
	assert.False(t, IsDuplicateEntry(errors.New("plain error")))
	assert.False(t, IsDuplicateEntry(nil))
}
