package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	orig := Logf
	defer func() { Logf = orig }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("mapped %d streamlines", 3)
	assert.Equal(t, []string{"mapped 3 streamlines"}, got)

	SetLogger(nil)
	assert.NotPanics(t, func() { Logf("muted %s", "message") })
	assert.Len(t, got, 1)
}
