package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeUpdate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		added   []string
		removed []string
		want    string
	}{
		{"one added", []string{"color"}, nil, "Added parameter to color"},
		{"several added to one port", []string{"series", "series"}, nil, "Added parameters to series"},
		{"added across ports", []string{"series", "color"}, nil, "Added parameters"},
		{"one removed", nil, []string{"color"}, "Removed parameter from color"},
		{"several removed from one port", nil, []string{"series", "series"}, "Removed parameters from series"},
		{"removed across ports", nil, []string{"series", "color"}, "Removed parameters"},
		{"one for one on a port", []string{"series"}, []string{"series"}, "Changed parameter on series"},
		{"several on one port", []string{"series", "series"}, []string{"series"}, "Changed parameters on series"},
		{"mixed ports", []string{"series"}, []string{"color"}, "Changed parameters"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, describeUpdate(tc.added, tc.removed))
		})
	}
}
