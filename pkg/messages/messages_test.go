package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeType(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    string
		wantErr bool
	}{
		{
			name:  "join team",
			frame: `{"type":"joinTeam","team":"home","participantId":"p-1"}`,
			want:  TypeJoinTeam,
		},
		{
			name:  "unknown types still decode",
			frame: `{"type":"somethingElse"}`,
			want:  "somethingElse",
		},
		{
			name:    "missing type",
			frame:   `{"team":"home"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			frame:   `pitch`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeType([]byte(tt.frame))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
