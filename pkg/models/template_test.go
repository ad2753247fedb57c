package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplate_RecordUse(t *testing.T) {
	tpl := &Template{Name: "Welcome Email", Config: testConfig()}

	tpl.RecordUse()
	tpl.RecordUse()

	assert.Equal(t, int64(2), tpl.UseCount)
	assert.False(t, tpl.UpdatedAt.IsZero())
}
