package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentFields(t *testing.T) {
	fields, err := SentFields([]byte(`{"subject":"Pump","scheduledDate":null}`))
	require.NoError(t, err)

	assert.True(t, fields["subject"])
	assert.True(t, fields["scheduledDate"], "explicit null still counts as sent")
	assert.False(t, fields["priority"])
}

func TestSentFieldsRejectsNonObject(t *testing.T) {
	_, err := SentFields([]byte(`[1,2]`))
	assert.Error(t, err)
}
