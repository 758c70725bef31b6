package psqlbuilder

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDollarPlaceholders(t *testing.T) {
	query, args, err := Select("id").From("max_updates").
		Where(squirrel.Eq{"chat_id": int64(1), "update_type": "message_created"}).
		ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM max_updates WHERE chat_id = $1 AND update_type = $2", query)
	assert.Equal(t, []interface{}{int64(1), "message_created"}, args)

	query, _, err = Delete("delivery_cursors").Where(squirrel.Eq{"bot_id": int64(7)}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM delivery_cursors WHERE bot_id = $1", query)
}
